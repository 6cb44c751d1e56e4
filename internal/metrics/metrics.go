package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters exposed on /metrics.
type Metrics struct {
	Logins          prometheus.Counter
	LoginFailures   prometheus.Counter
	Lockouts        prometheus.Counter
	Signups         prometheus.Counter
	InvitesIssued   prometheus.Counter
	InvitesRedeemed prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Successful logins.",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_login_failures_total",
			Help: "Failed login attempts.",
		}),
		Lockouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_lockouts_total",
			Help: "Accounts locked after repeated failures.",
		}),
		Signups: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_signups_total",
			Help: "Accounts created through invite signup.",
		}),
		InvitesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "invites_issued_total",
			Help: "Invites created by administrators.",
		}),
		InvitesRedeemed: factory.NewCounter(prometheus.CounterOpts{
			Name: "invites_redeemed_total",
			Help: "Invites consumed by successful signups.",
		}),
	}
}
