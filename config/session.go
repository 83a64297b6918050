package config

import "time"

// SessionConfig controls session verification and forced-logout behavior.
type SessionConfig struct {
	// LogoutCooldown suppresses duplicate forced logouts while concurrent
	// requests fail together. A few seconds covers in-flight stragglers.
	LogoutCooldown time.Duration `env:"LOGOUT_COOLDOWN" envDefault:"3s"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.LogoutCooldown <= 0 {
		s.LogoutCooldown = 3 * time.Second
	}
	if s.LogoutCooldown > time.Minute {
		s.LogoutCooldown = time.Minute
	}
}
