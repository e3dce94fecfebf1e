package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider groups the Prometheus collectors owned by the login service.
type Provider struct {
	loginOutcomes *prometheus.CounterVec
	auditDropped  prometheus.Counter
}

// Attach registers the service collectors with the provided registerer.
func Attach(reg prometheus.Registerer) (*Provider, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	loginOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "regclient",
		Subsystem: "auth",
		Name:      "login_outcomes_total",
		Help:      "Login outcomes recorded, partitioned by result.",
	}, []string{"result"})

	if err := reg.Register(loginOutcomes); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			loginOutcomes = already.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, fmt.Errorf("register login outcomes collector: %w", err)
		}
	}

	auditDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "regclient",
		Subsystem: "audit",
		Name:      "events_dropped_total",
		Help:      "Audit events dropped because the publish queue was full.",
	})

	if err := reg.Register(auditDropped); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			auditDropped = already.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, fmt.Errorf("register audit dropped collector: %w", err)
		}
	}

	return &Provider{
		loginOutcomes: loginOutcomes,
		auditDropped:  auditDropped,
	}, nil
}

// IncLoginOutcome bumps the outcome counter for the given result label
// (success, failure, or lockout). Nil-safe so callers can run unmetered.
func (p *Provider) IncLoginOutcome(result string) {
	if p == nil || p.loginOutcomes == nil {
		return
	}
	p.loginOutcomes.WithLabelValues(result).Inc()
}

// IncAuditDropped counts an audit event dropped on queue overflow.
func (p *Provider) IncAuditDropped() {
	if p == nil || p.auditDropped == nil {
		return
	}
	p.auditDropped.Inc()
}
