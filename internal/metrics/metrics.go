package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by the checker service and
// the aggregation pipeline.
type Metrics struct {
	Checks           *prometheus.CounterVec
	Reloads          *prometheus.CounterVec
	SnapshotEntries  *prometheus.GaugeVec
	SourceFetches    *prometheus.CounterVec
	SourceCandidates *prometheus.GaugeVec
	RegistryEntries  *prometheus.GaugeVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "throwaway_checks_total",
			Help: "Checks served, by kind (email, domain) and result",
		}, []string{"kind", "result"}),
		Reloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "throwaway_registry_reloads_total",
			Help: "Registry snapshot loads, by result",
		}, []string{"result"}),
		SnapshotEntries: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "throwaway_snapshot_entries",
			Help: "Entries in the currently served snapshot, by set",
		}, []string{"set"}),
		SourceFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "throwaway_source_fetches_total",
			Help: "Source fetches during aggregation, by source and result",
		}, []string{"source", "result"}),
		SourceCandidates: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "throwaway_source_candidates",
			Help: "Candidates returned by a source in the last run, by outcome (accepted, rejected)",
		}, []string{"source", "outcome"}),
		RegistryEntries: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "throwaway_registry_entries",
			Help: "Entries in the generated registry artifact, by set",
		}, []string{"set"}),
	}
}

// ObserveCheck counts one served check.
func (m *Metrics) ObserveCheck(kind, result string) {
	m.Checks.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveReload(ok bool) {
	m.Reloads.WithLabelValues(resultLabel(ok)).Inc()
}

func (m *Metrics) SetSnapshotSize(disposable, allow, tlds int) {
	m.SnapshotEntries.WithLabelValues("disposable").Set(float64(disposable))
	m.SnapshotEntries.WithLabelValues("allow").Set(float64(allow))
	m.SnapshotEntries.WithLabelValues("tld").Set(float64(tlds))
}

// ObserveSource records the outcome of one source fetch.
func (m *Metrics) ObserveSource(source string, ok bool, accepted, rejected int) {
	m.SourceFetches.WithLabelValues(source, resultLabel(ok)).Inc()
	m.SourceCandidates.WithLabelValues(source, "accepted").Set(float64(accepted))
	m.SourceCandidates.WithLabelValues(source, "rejected").Set(float64(rejected))
}

func (m *Metrics) SetRegistrySize(disposable, allow int) {
	m.RegistryEntries.WithLabelValues("disposable").Set(float64(disposable))
	m.RegistryEntries.WithLabelValues("allow").Set(float64(allow))
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
