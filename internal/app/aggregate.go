package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"

	"github.com/doodad-labs/throwaway-email-checker/internal/aggregate"
	"github.com/doodad-labs/throwaway-email-checker/internal/config"
	"github.com/doodad-labs/throwaway-email-checker/internal/data"
	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
	"github.com/doodad-labs/throwaway-email-checker/internal/metrics"
	"github.com/doodad-labs/throwaway-email-checker/internal/registry"
)

const pushJob = "throwaway_aggregate"

// RunAggregate rebuilds the registry in cfg.DataDir from the configured
// sources.
func RunAggregate(ctx context.Context, cfg config.AggregateConfig, log logrus.FieldLogger) error {
	store := registry.NewFileStore(cfg.DataDir)

	tlds, err := loadTLDs(store, log)
	if err != nil {
		return err
	}

	sources := aggregate.DefaultSources()
	if cfg.SourcesFile != "" {
		sources, err = aggregate.LoadSourcesFile(cfg.SourcesFile)
		if err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "throwaway_aggregate_last_success_timestamp_seconds",
		Help: "Unix time of the last successful aggregation run",
	})
	took := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "throwaway_aggregate_duration_seconds",
		Help: "Wall time of the last aggregation run",
	})
	reg.MustRegister(lastRun, took)

	p := aggregate.New(aggregate.NewClient(cfg.FetchTimeout), store, tlds,
		aggregate.WithLogger(log),
		aggregate.WithMetrics(m),
		aggregate.WithFetchTimeout(cfg.FetchTimeout),
		aggregate.WithConcurrency(cfg.Concurrency),
	)

	start := time.Now()
	_, runErr := p.Run(ctx, sources)
	took.Set(time.Since(start).Seconds())
	if runErr == nil {
		lastRun.SetToCurrentTime()
	}

	if cfg.PushgatewayURL != "" {
		pushMetrics(cfg.PushgatewayURL, reg, log)
	}
	return runErr
}

// RunTLDUpdate replaces tlds.txt in cfg.DataDir with a fresh copy of the
// IANA list.
func RunTLDUpdate(ctx context.Context, cfg config.AggregateConfig, log logrus.FieldLogger) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	tlds, err := aggregate.NewClient(cfg.FetchTimeout).FetchTLDs(ctx, cfg.TLDURL)
	if err != nil {
		return fmt.Errorf("fetch tlds: %w", err)
	}

	if err := registry.NewFileStore(cfg.DataDir).SaveTLDs(tlds, cfg.TLDURL); err != nil {
		return fmt.Errorf("save tlds: %w", err)
	}

	log.WithFields(logrus.Fields{
		"tlds": tlds.Len(),
		"dir":  cfg.DataDir,
	}).Info("app: tld list updated")
	return nil
}

// loadTLDs prefers the data dir's table and falls back to the embedded one.
func loadTLDs(store *registry.FileStore, log logrus.FieldLogger) (domain.TLDSet, error) {
	tlds, err := store.LoadTLDs()
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("dir", store.Dir()).Info("app: no tld list in data dir, using embedded copy")
		tlds, err = data.TLDs()
	}
	if err != nil {
		return domain.TLDSet{}, fmt.Errorf("load tlds: %w", err)
	}
	return tlds, nil
}

func pushMetrics(url string, g prometheus.Gatherer, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := push.New(url, pushJob).Gatherer(g).PushContext(ctx); err != nil {
		log.WithError(err).WithField("url", url).Warn("app: pushing metrics failed")
		return
	}
	log.WithField("url", url).Debug("app: metrics pushed")
}
