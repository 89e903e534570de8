// Package config loads and validates the router configuration.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           8000,
			Bind:           "loopback",
			AllowedOrigins: []string{"*"},
		},
		Providers: ProvidersConfig{
			Knowledge:     ProviderConfig{BaseURL: "http://127.0.0.1:8101", TimeoutSeconds: 30},
			Document:      ProviderConfig{BaseURL: "http://127.0.0.1:8102", TimeoutSeconds: 60},
			Database:      ProviderConfig{BaseURL: "http://127.0.0.1:8103", TimeoutSeconds: 30},
			Visualization: ProviderConfig{BaseURL: "http://127.0.0.1:8104", TimeoutSeconds: 60},
		},
		Classifier: ClassifierConfig{
			Model:          "gemini-2.5-flash",
			APIKey:         "${GOOGLE_API_KEY}",
			TimeoutSeconds: 10,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelayMs: 1000,
			MaxDelayMs:  10000,
			JitterMs:    500,
		},
		Session: SessionConfig{
			TTLMinutes:   30,
			SweepSeconds: 60,
			Store:        "memory",
		},
		Limits: LimitsConfig{
			MaxMessageChars: 2000,
			MaxFileBytes:    5 * 1024 * 1024,
			MaxFilePages:    20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
