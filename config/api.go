package config

import "time"

// APIConfig contains backend endpoint configuration.
type APIConfig struct {
	// BaseURL is the root of the SyntheaWeb backend.
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`

	// Timeout bounds every request except downloads, which stream.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`

	// DownloadTimeout bounds export downloads, which can be large.
	DownloadTimeout time.Duration `env:"API_DOWNLOAD_TIMEOUT" envDefault:"5m"`

	// UserAgent is sent on every request.
	UserAgent string `env:"API_USER_AGENT" envDefault:"synthea-client"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	if a.Timeout <= 0 {
		a.Timeout = 30 * time.Second
	}
	if a.DownloadTimeout < a.Timeout {
		a.DownloadTimeout = a.Timeout
	}
}
