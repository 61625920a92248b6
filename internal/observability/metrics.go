// Package observability provides Prometheus metrics for the admission gate.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// AdmissionsTotal counts successful authentications.
	AdmissionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_auth_admissions_total",
			Help: "Successful admissions",
		},
	)

	// DenialsTotal counts rejected admissions by reason.
	DenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_auth_denials_total",
			Help: "Denied admissions",
		},
		[]string{"reason"},
	)

	// RevocationsTotal counts token revocations by trigger.
	RevocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_auth_revocations_total",
			Help: "Token revocations",
		},
		[]string{"trigger"},
	)

	// RateLimitRejectedTotal counts authentication attempts rejected by the
	// rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_auth_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		AdmissionsTotal,
		DenialsTotal,
		RevocationsTotal,
		RateLimitRejectedTotal,
	)
}
