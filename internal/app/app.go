package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/doodad-labs/throwaway-email-checker/internal/config"
	"github.com/doodad-labs/throwaway-email-checker/internal/data"
	"github.com/doodad-labs/throwaway-email-checker/internal/metrics"
	"github.com/doodad-labs/throwaway-email-checker/internal/registry"
	"github.com/doodad-labs/throwaway-email-checker/internal/transport/grpc"
	httpgw "github.com/doodad-labs/throwaway-email-checker/internal/transport/http"
)

// Run serves the checker over gRPC and HTTP until ctx is canceled.
func Run(ctx context.Context, cfg config.ServiceConfig, log logrus.FieldLogger) error {
	holder := registry.NewHolder()

	updCfg := registry.Config{
		Interval:       cfg.ReloadInterval,
		InitialBackoff: 30 * time.Second,
		MaxBackoff:     30 * time.Minute,
	}

	var loader registry.Loader = data.Loader{}
	if cfg.DataDir != "" {
		loader = registry.NewFileStore(cfg.DataDir)
		log.WithField("dir", cfg.DataDir).Info("app: serving registry from data dir")
	} else {
		// Embedded data cannot change while running.
		updCfg.Interval = 0
		log.Info("app: serving embedded registry")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	checker := grpc.NewServer(holder, m)
	router, err := httpgw.NewRouter(httpgw.NewHandler(checker, holder, log), reg)
	if err != nil {
		return fmt.Errorf("build http router: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return registry.Start(ctx, updCfg, loader, holder, log, m)
	})

	g.Go(func() error {
		return grpc.RunGRPCServer(ctx, cfg.GRPCAddr, checker, log)
	})

	g.Go(func() error {
		return httpgw.RunHTTPServer(ctx, cfg.HTTPAddr, router, log)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("app: servers stopped with error")
		return err
	}

	log.Info("app: servers stopped gracefully")
	return nil
}
