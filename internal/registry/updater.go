package registry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
	"github.com/doodad-labs/throwaway-email-checker/internal/metrics"
)

// Loader produces a complete snapshot from persisted registry state.
type Loader interface {
	LoadSnapshot(ctx context.Context) (*domain.Snapshot, error)
}

type Config struct {
	Interval       time.Duration // base reload interval
	InitialBackoff time.Duration // initial backoff delay
	MaxBackoff     time.Duration // maximum backoff delay
}

// Start loads the registry once, then reloads it on every tick until ctx
// is done. A failed reload keeps the previous snapshot.
func Start(ctx context.Context, cfg Config, src Loader, holder *Holder, log logrus.FieldLogger, m *metrics.Metrics) error {
	log = log.WithField("component", "registry")

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Minute
	}

	// Perform the first load immediately on startup
	if err := updateOnce(ctx, src, holder, m); err != nil {
		log.WithError(err).Error("registry: initial load failed")
	} else {
		logLoaded(log, holder.Get(), "registry: initial load succeeded")
	}

	if cfg.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var consecutiveFailures int

	for {
		select {
		case <-ctx.Done():
			log.WithError(ctx.Err()).Info("registry: updater stopped")
			return ctx.Err()

		case <-ticker.C:
			if err := updateOnce(ctx, src, holder, m); err != nil {
				consecutiveFailures++
				backoff := calcBackoff(cfg.InitialBackoff, cfg.MaxBackoff, consecutiveFailures)

				log.WithError(err).WithFields(logrus.Fields{
					"attempt": consecutiveFailures,
					"backoff": backoff.String(),
				}).Warn("registry: reload failed")

				timer := time.NewTimer(backoff)
				select {
				case <-ctx.Done():
					timer.Stop()
					log.WithError(ctx.Err()).Info("registry: updater stopped during backoff")
					return ctx.Err()
				case <-timer.C:
				}
				continue
			}

			if consecutiveFailures > 0 {
				log.WithField("failures", consecutiveFailures).Info("registry: reload recovered")
			}
			consecutiveFailures = 0
			logLoaded(log, holder.Get(), "registry: reloaded")
		}
	}
}

func calcBackoff(initial, max time.Duration, failures int) time.Duration {
	pow := math.Pow(2, float64(failures-1))
	backoff := time.Duration(float64(initial) * pow)
	if backoff > max {
		backoff = max
	}

	// Add jitter to avoid synchronized retries
	jitterFrac := 0.2
	jitter := time.Duration(rand.Float64()*2*jitterFrac*float64(backoff)) -
		time.Duration(jitterFrac*float64(backoff))

	return backoff + jitter
}

// updateOnce loads a snapshot and publishes it.
func updateOnce(ctx context.Context, src Loader, holder *Holder, m *metrics.Metrics) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s, err := src.LoadSnapshot(ctx)
	if err != nil {
		if m != nil {
			m.ObserveReload(false)
		}
		return err
	}
	if s.LoadedAt.IsZero() {
		s.LoadedAt = time.Now()
	}

	holder.Set(s)
	if m != nil {
		m.ObserveReload(true)
		m.SetSnapshotSize(s.Disposable.Len(), s.Allow.Len(), s.TLDs.Len())
	}
	return nil
}

func logLoaded(log logrus.FieldLogger, s *domain.Snapshot, msg string) {
	log.WithFields(logrus.Fields{
		"disposable": s.Disposable.Len(),
		"allow":      s.Allow.Len(),
		"tlds":       s.TLDs.Len(),
	}).Info(msg)
}
