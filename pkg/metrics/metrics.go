package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ShieldedErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "profilehub", Name: "shielded_errors_total", Help: "Failures converted to error envelopes, by kind."},
		[]string{"kind"},
	)
	AugmentationsResolved = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "profilehub", Name: "augmentations_resolved_total", Help: "Identities resolved to an internal account."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "profilehub", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "profilehub", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(ShieldedErrors)
	reg.MustRegister(AugmentationsResolved)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
