// Package metrics provides Prometheus counters for credential verification.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace prefixes every metric name.
	Namespace = "stampauth"

	LabelMethod  = "method"
	LabelOutcome = "outcome"
	LabelType    = "type"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeCreated = "created"
	OutcomeInvalid = "invalid"
	OutcomeCloned  = "cloned"
	OutcomeExpired = "expired"
)

// Recorder owns the auth counters. A nil *Recorder drops every observation.
type Recorder struct {
	authAttempts        *prometheus.CounterVec
	challenges          *prometheus.CounterVec
	apiKeyVerifications *prometheus.CounterVec
}

// New registers the counters with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		authAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "auth_attempts_total",
				Help:      "Login attempts by credential method and outcome",
			},
			[]string{LabelMethod, LabelOutcome},
		),
		challenges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "challenges_total",
				Help:      "One-time challenges by type and outcome",
			},
			[]string{LabelType, LabelOutcome},
		),
		apiKeyVerifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "api_key_verifications_total",
				Help:      "API key verifications by outcome",
			},
			[]string{LabelOutcome},
		),
	}
}

// AuthAttempt counts a login attempt, e.g. ("password", OutcomeFailure).
func (r *Recorder) AuthAttempt(method, outcome string) {
	if r == nil {
		return
	}
	r.authAttempts.WithLabelValues(method, outcome).Inc()
}

// Challenge counts a challenge lifecycle event.
func (r *Recorder) Challenge(challengeType, outcome string) {
	if r == nil {
		return
	}
	r.challenges.WithLabelValues(challengeType, outcome).Inc()
}

// APIKeyVerification counts an API key check.
func (r *Recorder) APIKeyVerification(outcome string) {
	if r == nil {
		return
	}
	r.apiKeyVerifications.WithLabelValues(outcome).Inc()
}
