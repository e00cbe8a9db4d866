package reconcile

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"jupiter/internal/domain"
)

// Metrics counts what reconciliation passes did. Each instance owns its
// registry so that several engines can live in one process.
type Metrics struct {
	registry     *prometheus.Registry
	actions      *prometheus.CounterVec
	remoteErrors *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jupiter_reconcile_actions_total",
			Help: "Actions taken by reconciliation, by family and action.",
		}, []string{"family", "action"}),
		remoteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jupiter_remote_errors_total",
			Help: "Remote gateway failures seen by reconciliation, by family and kind.",
		}, []string{"family", "kind"}),
	}
}

func (m *Metrics) action(family domain.Family, action string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.actions.WithLabelValues(string(family), action).Add(float64(n))
}

func (m *Metrics) remoteError(family domain.Family, err error) {
	if m == nil || err == nil {
		return
	}
	m.remoteErrors.WithLabelValues(string(family), errorKind(err)).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrRemoteNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrRemoteUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrSchemaMismatch):
		return "schema_mismatch"
	}
	return "other"
}

// Gatherer exposes the registry, e.g. for a textfile export
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile dumps the counters in the node exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
