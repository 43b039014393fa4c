// Package generation orchestrates a multi-type question generation request:
// validation, distribution across types, per-type generation with relevance
// context, formatting and quality aggregation.
package generation

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/questgen/internal/distribution"
	"github.com/abhisek/questgen/internal/llm"
	"github.com/abhisek/questgen/internal/metrics"
	"github.com/abhisek/questgen/internal/persona"
	"github.com/abhisek/questgen/internal/problemgen"
	"github.com/abhisek/questgen/internal/relevance"
	"github.com/abhisek/questgen/internal/store"
	"github.com/abhisek/questgen/internal/taxonomy"
)

// Outcome labels used for metrics.
const (
	outcomeCompleted = "completed"
	outcomeInvalid   = "invalid"
	outcomeCancelled = "cancelled"
)

// Config controls the orchestrator.
type Config struct {
	// MaxQuestions caps NumberOfQuestions per request.
	MaxQuestions int

	// MaxConcurrency bounds how many question types are generated at once.
	// Zero means no bound.
	MaxConcurrency int
}

// DefaultConfig returns the standard orchestrator limits.
func DefaultConfig() Config {
	return Config{
		MaxQuestions:   50,
		MaxConcurrency: MaxQuestionTypes,
	}
}

// Retriever supplies the relevance signal for a question type. It must not
// fail; *relevance.Adapter is the production implementation.
type Retriever interface {
	Retrieve(ctx context.Context, q relevance.Query) relevance.Signal
}

// CancelledError reports that the caller cancelled or timed out the request
// before every type finished. No partial response accompanies it.
type CancelledError struct {
	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("generation cancelled: %v", e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }

// Service runs generation requests. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	cfg       Config
	gen       problemgen.Generator
	fallback  problemgen.Generator
	retriever Retriever
	sessions  store.SessionRepo
	metrics   *metrics.Metrics
	log       *zap.Logger
	newID     func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithSessionRepo records a summary of every completed or cancelled request.
func WithSessionRepo(r store.SessionRepo) Option {
	return func(s *Service) { s.sessions = r }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFallbackGenerator replaces the template generator used when the
// primary generator fails.
func WithFallbackGenerator(g problemgen.Generator) Option {
	return func(s *Service) { s.fallback = g }
}

// NewService creates a Service. A nil gen uses the template generator for
// all content.
func NewService(cfg Config, gen problemgen.Generator, retriever Retriever, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		gen:       gen,
		fallback:  problemgen.NewTemplateGenerator(),
		retriever: retriever,
		log:       zap.NewNop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		s.gen = s.fallback
	}
	s.log = s.log.Named("generation")
	return s
}

// Generate validates req, generates NumberOfQuestions questions across its
// types, and aggregates quality metrics. It returns *ValidationError for a
// bad request and *CancelledError when ctx ends first. A type whose
// generator fails is completed with template content and reported in
// Response.Warnings.
func (s *Service) Generate(ctx context.Context, caller Caller, req Request) (*Response, error) {
	start := time.Now()

	if err := req.Validate(s.cfg.MaxQuestions); err != nil {
		s.metrics.ObserveGeneration(outcomeInvalid, time.Since(start))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.metrics.ObserveGeneration(outcomeCancelled, time.Since(start))
		return nil, &CancelledError{Err: err}
	}

	sessionID := s.newID()
	ctx = llm.WithSession(ctx, sessionID)
	log := s.log.With(zap.String("session_id", sessionID), zap.String("user_id", caller.UserID))

	dist := distribution.Distribute(req.NumberOfQuestions, req.QuestionTypes)
	params := persona.Map(req.LearningStyle, req.Interests, req.Motivators)
	category := resolveCategory(req.Category)

	results := make([]typeResult, len(dist))
	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.MaxConcurrency > 0 {
		g.SetLimit(s.cfg.MaxConcurrency)
	}
	for i, alloc := range dist {
		if alloc.Count == 0 {
			continue
		}
		input := problemgen.GenerateInput{
			Type:               resolveType(alloc.Type),
			Category:           category,
			Grade:              req.GradeLevel,
			Difficulty:         req.DifficultyLevel,
			Format:             req.QuestionFormat,
			Persona:            params,
			FocusAreas:         req.FocusAreas,
			IncludeExplanation: req.IncludeExplanations,
		}
		g.Go(func() error {
			r, err := s.generateType(gctx, sessionID, input, alloc.Count, log)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil || ctx.Err() != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		log.Info("generation cancelled", zap.Error(err))
		s.metrics.ObserveGeneration(outcomeCancelled, time.Since(start))
		s.record(ctx, caller, req, sessionID, nil, store.SessionCancelled, time.Since(start))
		return nil, &CancelledError{Err: err}
	}

	resp := s.assemble(sessionID, req, dist, category, params, results)

	elapsed := time.Since(start)
	log.Info("generation completed",
		zap.Int("questions", resp.TotalQuestions),
		zap.Int("warnings", len(resp.Warnings)),
		zap.Float64("vector_relevance", resp.QualityMetrics.VectorRelevanceScore),
		zap.Duration("elapsed", elapsed))
	s.metrics.ObserveGeneration(outcomeCompleted, elapsed)
	s.metrics.ObserveQuestions(string(req.QuestionFormat), resp.TotalQuestions)
	s.record(ctx, caller, req, sessionID, resp, store.SessionCompleted, elapsed)

	return resp, nil
}

// typeResult is the outcome of one type's generation task.
type typeResult struct {
	Type      string
	Questions []problemgen.Question
	Signal    relevance.Signal
	Warning   *Warning
}

// generateType runs relevance retrieval, generation and formatting for one
// type. It fails only when ctx ends.
func (s *Service) generateType(ctx context.Context, sessionID string, input problemgen.GenerateInput, count int, log *zap.Logger) (typeResult, error) {
	typeID := input.Type.ID
	res := typeResult{Type: typeID}

	res.Signal = s.retriever.Retrieve(ctx, relevance.Query{
		Type:       typeID,
		Category:   input.Category.ID,
		Difficulty: input.Difficulty,
		Grade:      input.Grade,
	})
	input.Relevance = problemgen.RelevanceContext{
		Score:    res.Signal.Score,
		Sources:  res.Signal.Sources,
		Fallback: res.Signal.Fallback,
	}

	// Each rejected item is replaced on its own; the rest of the slice keeps
	// model content.
	batch, err := problemgen.GenerateBatch(ctx, s.gen, s.fallback, input, count)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, err
	}
	raw := batch.Questions

	if failed := len(batch.Rejected); failed > 0 {
		log.Warn("question type degraded to template content",
			zap.String("type", typeID),
			zap.Int("fallback", failed),
			zap.Int("requested", count),
			zap.Errors("rejections", batch.Rejected))
		s.metrics.ObserveTypeFallback(typeID)
		res.Warning = &Warning{
			Type:    typeID,
			Message: fmt.Sprintf("%d of %d questions use fallback content: %s", failed, count, summarizeError(batch.Rejected[0])),
		}
	}

	rng := rand.New(rand.NewPCG(seed(sessionID, typeID), uint64(count)))
	res.Questions = make([]problemgen.Question, 0, len(raw))
	for _, q := range raw {
		fq := problemgen.ApplyFormat(*q, input.Format, rng)
		fq.Type = typeID
		fq.Relevance = res.Signal.Score
		res.Questions = append(res.Questions, fq)
	}
	return res, nil
}

// assemble reduces the per-type results into the response. results is
// indexed like dist, so question order follows the request's type order.
func (s *Service) assemble(sessionID string, req Request, dist distribution.Distribution, category taxonomy.Category, params persona.Params, results []typeResult) *Response {
	resp := &Response{
		SessionID:        sessionID,
		Questions:        make([]problemgen.Question, 0, req.NumberOfQuestions),
		TypeDistribution: dist.Map(),
		CategoryContext:  categoryContext(category, req),
		PersonalizationApplied: PersonalizationApplied{
			Interests:     params.Interests,
			Motivators:    params.Motivators,
			LearningStyle: string(params.LearningStyle),
			Summary:       params.Summary(),
		},
	}
	if resp.PersonalizationApplied.Motivators == nil {
		resp.PersonalizationApplied.Motivators = []string{}
	}

	var relevanceSum, confidenceSum float64
	var types int
	for _, r := range results {
		if r.Type == "" {
			continue
		}
		types++
		relevanceSum += r.Signal.Score
		for _, q := range r.Questions {
			confidenceSum += q.Confidence
		}
		resp.Questions = append(resp.Questions, r.Questions...)
		if r.Warning != nil {
			resp.Warnings = append(resp.Warnings, *r.Warning)
		}
	}

	resp.TotalQuestions = len(resp.Questions)
	if types > 0 {
		resp.QualityMetrics.VectorRelevanceScore = relevanceSum / float64(types)
	}
	if resp.TotalQuestions > 0 {
		resp.QualityMetrics.AgenticValidationScore = confidenceSum / float64(resp.TotalQuestions)
	}
	resp.QualityMetrics.PersonalizationScore = params.Score()
	return resp
}

// record stores a session summary. Failures are logged only.
func (s *Service) record(ctx context.Context, caller Caller, req Request, sessionID string, resp *Response, status string, elapsed time.Duration) {
	if s.sessions == nil {
		return
	}
	rec := store.SessionRecord{
		SessionID:     sessionID,
		UserID:        caller.UserID,
		Subject:       req.Subject,
		Category:      req.Category,
		Grade:         req.GradeLevel,
		Difficulty:    string(req.DifficultyLevel),
		Format:        string(req.QuestionFormat),
		QuestionTypes: req.QuestionTypes,
		Status:        status,
		DurationMs:    elapsed.Milliseconds(),
	}
	if resp != nil {
		rec.TotalQuestions = resp.TotalQuestions
		rec.VectorRelevance = resp.QualityMetrics.VectorRelevanceScore
		rec.AgenticValidation = resp.QualityMetrics.AgenticValidationScore
		rec.Personalization = resp.QualityMetrics.PersonalizationScore
		rec.FallbackTypes = len(resp.Warnings)
		rec.Warnings = len(resp.Warnings)
	}
	if err := s.sessions.AppendSession(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Warn("failed to record generation session", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// resolveCategory looks the category up in the taxonomy. Unknown categories
// are passed through by ID so the generator still sees the caller's label.
func resolveCategory(id string) taxonomy.Category {
	if c, err := taxonomy.GetCategory(id); err == nil {
		return c
	}
	return taxonomy.Category{ID: id, Name: humanize(id)}
}

func resolveType(id string) taxonomy.QuestionType {
	if t, err := taxonomy.GetType(id); err == nil {
		return t
	}
	return taxonomy.QuestionType{ID: id, Name: humanize(id)}
}

// humanize turns "ALGEBRAIC_EQUATIONS" or "number-operations" into a title.
func humanize(id string) string {
	words := strings.FieldsFunc(strings.ToLower(id), func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func categoryContext(c taxonomy.Category, req Request) string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.Description != "" {
		b.WriteString(": ")
		b.WriteString(c.Description)
	}
	fmt.Fprintf(&b, " (grade %d, %s)", req.GradeLevel, strings.ToLower(string(req.DifficultyLevel)))
	return b.String()
}

// summarizeError keeps the innermost typed reason short enough for a
// response warning.
func summarizeError(err error) string {
	var verr *problemgen.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	msg := []rune(err.Error())
	if len(msg) > 160 {
		return string(msg[:160]) + "..."
	}
	return string(msg)
}

func seed(sessionID, typeID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	h.Write([]byte{0})
	h.Write([]byte(typeID))
	return h.Sum64()
}
