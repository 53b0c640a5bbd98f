package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts authentication outcomes. Labels: "success",
	// "invalid_credential", "locked", "error".
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "objaverse_login_attempts_total",
		Help: "Authentication attempts by outcome",
	}, []string{"outcome"})

	// TokenVerifications counts verification outcomes. Labels: "ok",
	// "bad_signature", "expired", "revoked", "malformed", "error".
	TokenVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "objaverse_token_verifications_total",
		Help: "Token verifications by result",
	}, []string{"result"})

	// ReadinessProbeFailures counts failed dependency probes by probe name.
	ReadinessProbeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "objaverse_readiness_probe_failures_total",
		Help: "Failed readiness dependency probes",
	}, []string{"probe"})
)
