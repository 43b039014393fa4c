package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/questgen/internal/config"
	"github.com/abhisek/questgen/internal/generation"
	"github.com/abhisek/questgen/internal/llm"
	"github.com/abhisek/questgen/internal/metrics"
	"github.com/abhisek/questgen/internal/problemgen"
	"github.com/abhisek/questgen/internal/relevance"
	"github.com/abhisek/questgen/internal/store"
)

// runtime is the assembled generation stack shared by serve, generate and
// preview.
type runtime struct {
	cfg      *config.Config
	store    *store.Store
	adapter  *relevance.Adapter
	service  *generation.Service
	provider llm.Provider
}

func (r *runtime) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// buildRuntime opens the store and wires the provider, relevance adapter and
// generation service. A nil store is allowed and skips the audit log.
func buildRuntime(ctx context.Context, cfg *config.Config, withStore bool, logger *zap.Logger, m *metrics.Metrics) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	var events store.EventRepo
	var opts []generation.Option
	if withStore {
		dbPath, err := resolveDBPath(cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		rt.store = st
		events = st.EventRepo()
		opts = append(opts, generation.WithSessionRepo(st.SessionRepo()))
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM, events, logger)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("LLM provider: %w", err)
	}
	rt.provider = provider

	rt.adapter = relevance.NewAdapter(cfg.Search,
		relevance.WithLogger(logger),
		relevance.WithObserver(m))

	var gen problemgen.Generator
	if provider != nil {
		gen = problemgen.New(provider, problemgen.DefaultConfig())
	}
	opts = append(opts, generation.WithLogger(logger), generation.WithMetrics(m))
	rt.service = generation.NewService(cfg.Generation, gen, rt.adapter, opts...)

	logger.Info("generation stack ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.Bool("search_enabled", cfg.Search.Enabled()),
		zap.Bool("audit_log", withStore))
	return rt, nil
}
