package service

// AuthMetrics receives counters for authentication outcomes.
type AuthMetrics interface {
	AuthAttempt(method, outcome string)
	Challenge(challengeType, outcome string)
	APIKeyVerification(outcome string)
}
