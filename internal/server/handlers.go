package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/questgen/internal/generation"
	"github.com/abhisek/questgen/internal/relevance"
	"github.com/abhisek/questgen/internal/taxonomy"
)

// Caller identity headers, set by the upstream auth layer.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
	HeaderUserGrade = "X-User-Grade"
)

const maxBodyBytes = 64 << 10

func (s *Server) generate(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		unauthorized(c, "missing caller identity")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		badRequest(c, "could not read request body", err.Error())
		return
	}
	if err := checkBody(s.schema, body); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	var req generation.Request
	if err := json.Unmarshal(body, &req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	resp, err := s.deps.Generator.Generate(ctx, caller, req)
	if err != nil {
		s.generateError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) generateError(c *gin.Context, err error) {
	_ = c.Error(err)

	var verr *generation.ValidationError
	var cerr *generation.CancelledError
	switch {
	case errors.As(err, &verr):
		validationFailed(c, verr)
	case errors.As(err, &cerr) && errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, APIError{
			Code:    ErrCodeTimeout,
			Message: "question generation timed out",
		})
	case errors.As(err, &cerr):
		respondError(c, StatusClientClosedRequest, APIError{
			Code:    ErrCodeCancelled,
			Message: "request cancelled",
		})
	default:
		s.log.Error("generation failed", zap.Error(err))
		internalError(c, "question generation failed")
	}
}

// callerFrom reads the upstream-authenticated identity. A request without a
// user id is rejected; an unparsable grade is treated as unknown.
func callerFrom(c *gin.Context) (generation.Caller, bool) {
	caller := generation.Caller{
		UserID: c.GetHeader(HeaderUserID),
		Email:  c.GetHeader(HeaderUserEmail),
		Role:   c.GetHeader(HeaderUserRole),
	}
	if g, err := strconv.Atoi(c.GetHeader(HeaderUserGrade)); err == nil {
		caller.Grade = g
	}
	return caller, caller.UserID != ""
}

type taxonomyType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type taxonomyCategory struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Types       []taxonomyType `json:"questionTypes"`
}

type taxonomyResponse struct {
	Categories     []taxonomyCategory        `json:"categories"`
	Formats        []taxonomy.QuestionFormat `json:"questionFormats"`
	Difficulties   []taxonomy.Difficulty     `json:"difficultyLevels"`
	LearningStyles []taxonomy.LearningStyle  `json:"learningStyles"`
	Interests      []string                  `json:"interests"`
	Motivators     []string                  `json:"motivators"`
	Grades         [2]int                    `json:"gradeRange"`
}

func (s *Server) taxonomy(c *gin.Context) {
	cats := taxonomy.AllCategories()
	out := taxonomyResponse{
		Categories:     make([]taxonomyCategory, 0, len(cats)),
		Formats:        taxonomy.AllFormats(),
		Difficulties:   taxonomy.AllDifficulties(),
		LearningStyles: taxonomy.AllLearningStyles(),
		Interests:      taxonomy.Interests(),
		Motivators:     taxonomy.Motivators(),
		Grades:         [2]int{taxonomy.MinGrade, taxonomy.MaxGrade},
	}
	for _, cat := range cats {
		tc := taxonomyCategory{ID: cat.ID, Name: cat.Name, Description: cat.Description}
		for _, t := range cat.Types {
			tc.Types = append(tc.Types, taxonomyType{ID: t.ID, Name: t.Name, Description: t.Description})
		}
		out.Categories = append(out.Categories, tc)
	}
	c.JSON(http.StatusOK, out)
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "questgen",
		Version: s.cfg.Version,
	})
}

// deepHealth checks the audit database and the search backend. An
// unreachable search backend only degrades relevance scores, so it is
// reported without failing the check.
func (s *Server) deepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	healthy := true

	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(ctx); err != nil {
			deps["database"] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			deps["database"] = "healthy"
		}
	} else {
		deps["database"] = "not configured"
	}

	if s.deps.Search != nil {
		switch err := s.deps.Search.Health(ctx); {
		case err == nil:
			deps["search"] = "healthy"
		case errors.Is(err, relevance.ErrDisabled):
			deps["search"] = "not configured"
		default:
			deps["search"] = "degraded: " + err.Error()
		}
	} else {
		deps["search"] = "not configured"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:       status,
		Service:      "questgen",
		Version:      s.cfg.Version,
		Dependencies: deps,
	})
}
