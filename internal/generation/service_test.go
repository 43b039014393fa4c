package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/questgen/internal/llm"
	"github.com/abhisek/questgen/internal/problemgen"
	"github.com/abhisek/questgen/internal/relevance"
	"github.com/abhisek/questgen/internal/store"
	"github.com/abhisek/questgen/internal/taxonomy"
)

type staticRetriever struct {
	mu      sync.Mutex
	scores  map[string]float64
	queries []relevance.Query
}

func (r *staticRetriever) Retrieve(_ context.Context, q relevance.Query) relevance.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	score, ok := r.scores[q.Type]
	if !ok {
		return relevance.Fallback(q)
	}
	return relevance.Signal{Score: score, TopScore: score, Candidates: 1, Source: relevance.SourceSearch, Sources: []string{"ref-" + q.Type}}
}

// recordingGenerator delegates to the template generator and records the
// types it was asked for.
type recordingGenerator struct {
	mu    sync.Mutex
	types []string
	fail  map[string]bool
	after int
}

func (g *recordingGenerator) Generate(ctx context.Context, input problemgen.GenerateInput) (*problemgen.Question, error) {
	g.mu.Lock()
	g.types = append(g.types, input.Type.ID)
	failing := g.fail[input.Type.ID] && len(input.PriorQuestions) >= g.after
	g.mu.Unlock()

	if failing {
		return nil, &llm.ErrProviderUnavailable{Err: errors.New("upstream 503")}
	}
	q, err := problemgen.NewTemplateGenerator().Generate(ctx, input)
	if err != nil {
		return nil, err
	}
	q.Fallback = false
	q.Confidence = 0.9
	return q, nil
}

func (g *recordingGenerator) calledFor(typeID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, t := range g.types {
		if t == typeID {
			n++
		}
	}
	return n
}

// blockingGenerator blocks until ctx ends, announcing each call on started.
type blockingGenerator struct {
	started chan struct{}
}

func (g *blockingGenerator) Generate(ctx context.Context, _ problemgen.GenerateInput) (*problemgen.Question, error) {
	g.started <- struct{}{}
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeSessionRepo struct {
	mu   sync.Mutex
	recs []store.SessionRecord
	err  error
}

func (r *fakeSessionRepo) AppendSession(_ context.Context, rec store.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return r.err
}

func newTestService(gen problemgen.Generator, ret Retriever, opts ...Option) *Service {
	s := NewService(DefaultConfig(), gen, ret, opts...)
	s.newID = func() string { return "session-1" }
	return s
}

func TestGenerate_TwoTypesEvenSplit(t *testing.T) {
	ret := &staticRetriever{scores: map[string]float64{"ADDITION": 0.9, "SUBTRACTION": 0.7}}
	s := newTestService(nil, ret)

	resp, err := s.Generate(context.Background(), Caller{UserID: "u1"}, validRequest())
	require.NoError(t, err)

	assert.Equal(t, "session-1", resp.SessionID)
	assert.Equal(t, 10, resp.TotalQuestions)
	require.Len(t, resp.Questions, 10)
	assert.Equal(t, map[string]int{"ADDITION": 5, "SUBTRACTION": 5}, resp.TypeDistribution)

	for i, q := range resp.Questions {
		want := "ADDITION"
		wantRelevance := 0.9
		if i >= 5 {
			want = "SUBTRACTION"
			wantRelevance = 0.7
		}
		assert.Equal(t, want, q.Type, "question %d", i)
		assert.Equal(t, wantRelevance, q.Relevance, "question %d", i)
		assert.Equal(t, taxonomy.FormatMultipleChoice, q.Format)
		assert.Len(t, q.Options, problemgen.MultipleChoiceOptions)
	}

	assert.InDelta(t, 0.8, resp.QualityMetrics.VectorRelevanceScore, 1e-9)
	assert.InDelta(t, problemgen.FallbackConfidence, resp.QualityMetrics.AgenticValidationScore, 1e-9)
	assert.InDelta(t, 0.5+0.1+0.1+0.05, resp.QualityMetrics.PersonalizationScore, 1e-9)
	assert.Empty(t, resp.Warnings)

	assert.Equal(t, []string{"space", "sports"}, resp.PersonalizationApplied.Interests)
	assert.Equal(t, "VISUAL", resp.PersonalizationApplied.LearningStyle)
	assert.Contains(t, resp.PersonalizationApplied.Summary, "visual")
	assert.Contains(t, resp.CategoryContext, "Number Operations")
}

func TestGenerate_ThreeTypesRemainderFrontLoaded(t *testing.T) {
	req := validRequest()
	req.QuestionTypes = []string{"ADDITION", "SUBTRACTION", "MULTIPLICATION"}

	resp, err := newTestService(nil, &staticRetriever{}).Generate(context.Background(), Caller{}, req)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ADDITION": 4, "SUBTRACTION": 3, "MULTIPLICATION": 3}, resp.TypeDistribution)

	var order []string
	for _, q := range resp.Questions {
		if len(order) == 0 || order[len(order)-1] != q.Type {
			order = append(order, q.Type)
		}
	}
	assert.Equal(t, req.QuestionTypes, order)
}

func TestGenerate_ZeroCountTypeSkipped(t *testing.T) {
	req := validRequest()
	req.QuestionTypes = []string{"ADDITION", "SUBTRACTION", "MULTIPLICATION", "DIVISION"}
	req.NumberOfQuestions = 3

	gen := &recordingGenerator{}
	ret := &staticRetriever{}
	resp, err := newTestService(gen, ret).Generate(context.Background(), Caller{}, req)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalQuestions)
	assert.Equal(t, 0, resp.TypeDistribution["DIVISION"])
	assert.Equal(t, 0, gen.calledFor("DIVISION"))
	for _, q := range ret.queries {
		assert.NotEqual(t, "DIVISION", q.Type)
	}
	assert.Len(t, ret.queries, 3)
}

func TestGenerate_PerTypeFailureDegrades(t *testing.T) {
	gen := &recordingGenerator{fail: map[string]bool{"SUBTRACTION": true}, after: 2}
	s := newTestService(gen, &staticRetriever{})

	resp, err := s.Generate(context.Background(), Caller{}, validRequest())
	require.NoError(t, err)
	require.Len(t, resp.Questions, 10)

	var fallbacks int
	for i, q := range resp.Questions {
		if i < 5 {
			assert.False(t, q.Fallback, "ADDITION question %d", i)
			continue
		}
		assert.Equal(t, "SUBTRACTION", q.Type)
		if q.Fallback {
			fallbacks++
		}
	}
	assert.Equal(t, 3, fallbacks)

	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "SUBTRACTION", resp.Warnings[0].Type)
	assert.Contains(t, resp.Warnings[0].Message, "3 of 5 questions")

	// 7 items at 0.9 and 3 template items at FallbackConfidence.
	want := (7*0.9 + 3*problemgen.FallbackConfidence) / 10
	assert.InDelta(t, want, resp.QualityMetrics.AgenticValidationScore, 1e-9)
}

// flakyGenerator rejects the listed calls (1-based) and otherwise delegates
// to recordingGenerator.
type flakyGenerator struct {
	recordingGenerator
	reject map[int]bool
	calls  int
}

func (g *flakyGenerator) Generate(ctx context.Context, input problemgen.GenerateInput) (*problemgen.Question, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()
	if g.reject[n] {
		return nil, &problemgen.ValidationError{Validator: "math-check", Message: "answer does not match", Retryable: true}
	}
	return g.recordingGenerator.Generate(ctx, input)
}

func TestGenerate_SingleRejectionReplacesOneItem(t *testing.T) {
	req := validRequest()
	req.QuestionTypes = []string{"ADDITION"}
	req.NumberOfQuestions = 5

	gen := &flakyGenerator{reject: map[int]bool{1: true}}
	resp, err := newTestService(gen, &staticRetriever{}).Generate(context.Background(), Caller{}, req)
	require.NoError(t, err)
	require.Len(t, resp.Questions, 5)

	assert.Equal(t, 5, gen.calls)
	assert.True(t, resp.Questions[0].Fallback)
	for i, q := range resp.Questions[1:] {
		assert.False(t, q.Fallback, "question %d", i+1)
	}

	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0].Message, "1 of 5 questions")
	assert.Contains(t, resp.Warnings[0].Message, "math-check")

	seen := map[string]bool{}
	for _, q := range resp.Questions {
		assert.False(t, seen[q.Text], "repeat %q", q.Text)
		seen[q.Text] = true
	}
}

func TestGenerate_ValidationFailsBeforeWork(t *testing.T) {
	gen := &recordingGenerator{}
	ret := &staticRetriever{}
	sessions := &fakeSessionRepo{}
	s := newTestService(gen, ret, WithSessionRepo(sessions))

	req := validRequest()
	req.QuestionTypes = nil
	req.Interests = []string{"a", "b", "c", "d", "e", "f"}

	resp, err := s.Generate(context.Background(), Caller{}, req)
	assert.Nil(t, resp)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Violations), 2)
	assert.Empty(t, gen.types)
	assert.Empty(t, ret.queries)
	assert.Empty(t, sessions.recs)
}

func TestGenerate_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(nil, &staticRetriever{}).Generate(ctx, Caller{}, validRequest())
	var cerr *CancelledError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_CancelledMidFlight(t *testing.T) {
	gen := &blockingGenerator{started: make(chan struct{}, 10)}
	sessions := &fakeSessionRepo{}
	s := newTestService(gen, &staticRetriever{}, WithSessionRepo(sessions))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-gen.started
		cancel()
	}()

	resp, err := s.Generate(ctx, Caller{UserID: "u1"}, validRequest())
	assert.Nil(t, resp)
	var cerr *CancelledError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, sessions.recs, 1)
	assert.Equal(t, store.SessionCancelled, sessions.recs[0].Status)
	assert.Zero(t, sessions.recs[0].TotalQuestions)
}

func TestGenerate_Deadline(t *testing.T) {
	gen := &blockingGenerator{started: make(chan struct{}, 10)}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := newTestService(gen, &staticRetriever{}).Generate(ctx, Caller{}, validRequest())
	var cerr *CancelledError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerate_SearchBackendTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := relevance.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.Timeout = 50 * time.Millisecond
	adapter := relevance.NewAdapter(cfg)

	resp, err := newTestService(nil, adapter).Generate(context.Background(), Caller{}, validRequest())
	require.NoError(t, err)
	assert.Equal(t, 10, resp.TotalQuestions)
	assert.LessOrEqual(t, resp.QualityMetrics.VectorRelevanceScore, 0.8)
	for _, q := range resp.Questions {
		assert.LessOrEqual(t, q.Relevance, 0.8)
	}
}

func TestGenerate_LLMConfidenceAggregated(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"question_text":"What is 345 + 278?","answer":"623","answer_type":"integer","difficulty":3,"confidence":0.9}`)},
		llm.MockResponse{Content: json.RawMessage(`{"question_text":"What is 12 + 30?","answer":"42","answer_type":"integer","difficulty":3,"confidence":0.7}`)},
	)
	gen := problemgen.New(mock, problemgen.DefaultConfig())

	req := validRequest()
	req.QuestionTypes = []string{"ADDITION"}
	req.NumberOfQuestions = 2
	req.QuestionFormat = taxonomy.FormatShortAnswer

	resp, err := newTestService(gen, &staticRetriever{scores: map[string]float64{"ADDITION": 0.85}}).
		Generate(context.Background(), Caller{}, req)
	require.NoError(t, err)

	require.Len(t, resp.Questions, 2)
	assert.Equal(t, "623", resp.Questions[0].Answer)
	assert.Equal(t, "42", resp.Questions[1].Answer)
	assert.Nil(t, resp.Questions[0].Options)
	assert.InDelta(t, 0.8, resp.QualityMetrics.AgenticValidationScore, 1e-9)
	assert.InDelta(t, 0.85, resp.QualityMetrics.VectorRelevanceScore, 1e-9)

	// The second prompt lists the first question for deduplication.
	require.Equal(t, 2, mock.CallCount())
	assert.Contains(t, mock.Calls[1].Messages[0].Content, "What is 345 + 278?")
}

func TestGenerate_RecordsSession(t *testing.T) {
	sessions := &fakeSessionRepo{err: errors.New("disk full")}
	s := newTestService(nil, &staticRetriever{scores: map[string]float64{"ADDITION": 0.9, "SUBTRACTION": 0.7}}, WithSessionRepo(sessions))

	resp, err := s.Generate(context.Background(), Caller{UserID: "u42"}, validRequest())
	require.NoError(t, err, "store failures must not fail generation")

	require.Len(t, sessions.recs, 1)
	rec := sessions.recs[0]
	assert.Equal(t, "session-1", rec.SessionID)
	assert.Equal(t, "u42", rec.UserID)
	assert.Equal(t, store.SessionCompleted, rec.Status)
	assert.Equal(t, 10, rec.TotalQuestions)
	assert.Equal(t, []string{"ADDITION", "SUBTRACTION"}, rec.QuestionTypes)
	assert.Equal(t, resp.QualityMetrics.VectorRelevanceScore, rec.VectorRelevance)
}

func TestGenerate_UnknownTypeAndCategory(t *testing.T) {
	req := validRequest()
	req.Category = "puzzles"
	req.QuestionTypes = []string{"LOGIC_GRIDS"}
	req.NumberOfQuestions = 2

	resp, err := newTestService(nil, &staticRetriever{}).Generate(context.Background(), Caller{}, req)
	require.NoError(t, err)
	assert.Len(t, resp.Questions, 2)
	assert.Equal(t, "LOGIC_GRIDS", resp.Questions[0].Type)
	assert.Contains(t, resp.CategoryContext, "Puzzles")
	// Fallback signal: no category or type boost, MEDIUM boost only.
	assert.InDelta(t, 0.75, resp.QualityMetrics.VectorRelevanceScore, 1e-9)
}

func TestGenerate_FormatsApplied(t *testing.T) {
	for _, f := range taxonomy.AllFormats() {
		t.Run(string(f), func(t *testing.T) {
			req := validRequest()
			req.QuestionFormat = f
			req.NumberOfQuestions = 4

			resp, err := newTestService(nil, &staticRetriever{}).Generate(context.Background(), Caller{}, req)
			require.NoError(t, err)
			for _, q := range resp.Questions {
				assert.Equal(t, f, q.Format)
				switch f {
				case taxonomy.FormatMultipleChoice:
					assert.Len(t, q.Options, 4)
				case taxonomy.FormatTrueFalse:
					assert.Equal(t, []string{"True", "False"}, q.Options)
				case taxonomy.FormatFillInBlank:
					assert.Contains(t, q.Text, problemgen.Blank)
				default:
					assert.Nil(t, q.Options)
				}
			}
		})
	}
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Algebraic Equations", humanize("ALGEBRAIC_EQUATIONS"))
	assert.Equal(t, "Number Operations", humanize("number-operations"))
	assert.Equal(t, "Écriture Des Nombres", humanize("ÉCRITURE_DES_NOMBRES"))
	assert.Equal(t, "Ñandú", humanize("ñandú"))
}

func TestSummarizeError_CutsOnRunes(t *testing.T) {
	msg := summarizeError(errors.New(strings.Repeat("é", 200)))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, strings.Repeat("é", 160)+"...", msg)

	assert.Equal(t, "short", summarizeError(errors.New("short")))
}
