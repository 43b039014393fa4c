package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/questgen/internal/metrics"
	"github.com/abhisek/questgen/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the question generation HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides QUESTGEN_ADDR env var)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		cfg.Addr = a
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, cfg, true, logger, m)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	srvCfg := server.DefaultConfig()
	srvCfg.Addr = cfg.Addr
	srvCfg.Production = cfg.Production()
	srvCfg.Version = version

	srv, err := server.New(srvCfg, server.Deps{
		Generator: rt.service,
		DB:        rt.store.DB(),
		Search:    rt.adapter,
		Metrics:   m,
		Gatherer:  reg,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
