// Package metrics exposes Prometheus counters for authentication and
// authorization outcomes.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	authFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventdesk_auth_failures_total",
			Help: "Rejected session resolutions and logins by variant and reason.",
		},
		[]string{"variant", "reason"},
	)

	denials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventdesk_authz_denials_total",
			Help: "Operations denied by the authorization policy.",
		},
		[]string{"variant", "target", "action"},
	)

	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventdesk_logins_total",
			Help: "Successful logins by variant.",
		},
		[]string{"variant"},
	)

	registerOnce sync.Once
)

// Init registers the collectors with the default registry.  Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(authFailures, denials, logins)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AuthFailure counts a rejected credential for variant.
func AuthFailure(variant, reason string) {
	authFailures.WithLabelValues(variant, reason).Inc()
}

// Denied counts a policy denial.
func Denied(variant, target, action string) {
	denials.WithLabelValues(variant, target, action).Inc()
}

// Login counts a successful login.
func Login(variant string) {
	logins.WithLabelValues(variant).Inc()
}
