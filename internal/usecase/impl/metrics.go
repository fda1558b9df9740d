// Package impl contains the implementation of the application's business logic.
package impl

import "stampauth/internal/domain/service"

// Metric label values shared by the services in this package.
const (
	methodPassword = "password"
	methodOAuth    = "oauth"
	methodWebAuthn = "webauthn"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeCreated = "created"
	outcomeExpired = "expired"
	outcomeInvalid = "invalid"
	outcomeCloned  = "cloned"
)

type noopMetrics struct{}

func (noopMetrics) AuthAttempt(string, string) {}
func (noopMetrics) Challenge(string, string)   {}
func (noopMetrics) APIKeyVerification(string)  {}

func metricsOrNoop(m service.AuthMetrics) service.AuthMetrics {
	if m == nil {
		return noopMetrics{}
	}

	return m
}
