// Package relevance looks up how well the reference content in the search
// backend covers a question type, and degrades to a locally computed
// signal when the backend cannot answer.
package relevance

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/questgen/internal/taxonomy"
)

// Threshold is the candidate score at or above which a hit counts as relevant.
const Threshold = 0.7

// Fallback scoring constants.
const (
	fallbackBase  = 0.7
	fallbackBoost = 0.05
	fallbackCap   = 0.8
)

// Signal sources.
const (
	SourceSearch   = "search"
	SourceFallback = "fallback"
)

// Query identifies what a relevance lookup is for.
type Query struct {
	Type       string
	Category   string
	Difficulty taxonomy.Difficulty
	Grade      int
}

// Signal is the relevance estimate for one Query.
type Signal struct {
	// Score is the mean candidate score, in [0,1].
	Score float64 `json:"score"`

	Candidates     int     `json:"candidates"`
	AboveThreshold int     `json:"aboveThreshold"`
	TopScore       float64 `json:"topScore"`

	// Sources lists the IDs of the candidates the score was computed from.
	Sources []string `json:"sources,omitempty"`

	// Source is SourceSearch or SourceFallback.
	Source   string `json:"source"`
	Fallback bool   `json:"fallback"`
}

// Observer is notified of the source of every signal Retrieve returns.
type Observer interface {
	ObserveRelevance(source string)
}

// Adapter queries the search backend. It is safe for concurrent use.
type Adapter struct {
	cfg      Config
	client   *http.Client
	log      *zap.Logger
	observer Observer

	mu        sync.Mutex
	healthAt  time.Time
	healthErr error
	now       func() time.Time
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithObserver registers o to be told the source of each retrieved signal.
func WithObserver(o Observer) Option {
	return func(a *Adapter) { a.observer = o }
}

// NewAdapter creates an Adapter. Zero limits in cfg are replaced by the
// DefaultConfig values.
func NewAdapter(cfg Config, opts ...Option) *Adapter {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.HealthCacheTTL < 0 {
		cfg.HealthCacheTTL = 0
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = def.MaxCandidates
	}
	if cfg.Index == "" {
		cfg.Index = def.Index
	}

	a := &Adapter{
		cfg:    cfg,
		client: &http.Client{},
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.Named("relevance")
	return a
}

// Config returns the effective configuration.
func (a *Adapter) Config() Config {
	return a.cfg
}

// Search checks backend health and runs the candidate search. It returns
// ErrDisabled, ErrNoCandidates, *ErrBackendUnavailable or *ErrUnhealthy
// when no real signal can be produced.
func (a *Adapter) Search(ctx context.Context, q Query) (Signal, error) {
	if !a.cfg.Enabled() {
		return Signal{}, ErrDisabled
	}
	if err := a.checkHealth(ctx); err != nil {
		return Signal{}, err
	}

	hits, err := a.search(ctx, q)
	if err != nil {
		return Signal{}, err
	}
	if len(hits) == 0 {
		return Signal{}, ErrNoCandidates
	}
	return aggregate(hits), nil
}

// Retrieve never fails: any Search error is logged and replaced by the
// fallback signal for q.
func (a *Adapter) Retrieve(ctx context.Context, q Query) Signal {
	sig, err := a.Search(ctx, q)
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			a.log.Warn("relevance lookup degraded to fallback",
				zap.String("type", q.Type),
				zap.String("category", q.Category),
				zap.Error(err))
		}
		sig = Fallback(q)
	}
	if a.observer != nil {
		a.observer.ObserveRelevance(sig.Source)
	}
	return sig
}

// Fallback computes a conservative signal without the backend: a 0.7 base,
// +0.05 each for a known category, a type belonging to it, and a standard
// difficulty, capped at 0.8.
func Fallback(q Query) Signal {
	score := fallbackBase
	if cat, err := taxonomy.GetCategory(q.Category); err == nil {
		score += fallbackBoost
		if cat.HasType(q.Type) {
			score += fallbackBoost
		}
	}
	if q.Difficulty.Standard() {
		score += fallbackBoost
	}
	if score > fallbackCap {
		score = fallbackCap
	}
	return Signal{
		Score:    score,
		TopScore: score,
		Source:   SourceFallback,
		Fallback: true,
	}
}

// aggregate reduces hits to a Signal. Scores are clamped to [0,1].
func aggregate(hits []hit) Signal {
	sig := Signal{
		Candidates: len(hits),
		Source:     SourceSearch,
		Sources:    make([]string, 0, len(hits)),
	}
	var sum float64
	for _, h := range hits {
		s := clamp01(h.score)
		sum += s
		if s > sig.TopScore {
			sig.TopScore = s
		}
		if s >= Threshold {
			sig.AboveThreshold++
		}
		sig.Sources = append(sig.Sources, h.id)
	}
	sig.Score = sum / float64(len(hits))
	return sig
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
