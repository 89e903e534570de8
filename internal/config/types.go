package config

// Config is the root configuration for the unified router.
type Config struct {
	Server     ServerConfig     `yaml:"server,omitempty"`
	Providers  ProvidersConfig  `yaml:"providers,omitempty"`
	Classifier ClassifierConfig `yaml:"classifier,omitempty"`
	Retry      RetryConfig      `yaml:"retry,omitempty"`
	Session    SessionConfig    `yaml:"session,omitempty"`
	Limits     LimitsConfig     `yaml:"limits,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// ProvidersConfig holds the endpoint of each capability provider.
// The scope-guard deflector is local and needs no endpoint.
type ProvidersConfig struct {
	Knowledge     ProviderConfig `yaml:"knowledge,omitempty"`
	Document      ProviderConfig `yaml:"document,omitempty"`
	Database      ProviderConfig `yaml:"database,omitempty"`
	Visualization ProviderConfig `yaml:"visualization,omitempty"`
}

// ProviderConfig describes one remote capability provider.
type ProviderConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// ClassifierConfig controls the intent classification call.
type ClassifierConfig struct {
	Model          string `yaml:"model,omitempty"`
	APIKey         string `yaml:"apiKey,omitempty"` // supports ${ENV_VAR} references
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// RetryConfig parameterizes the shared retry policy for provider calls.
type RetryConfig struct {
	MaxAttempts int `yaml:"maxAttempts,omitempty"`
	BaseDelayMs int `yaml:"baseDelayMs,omitempty"`
	MaxDelayMs  int `yaml:"maxDelayMs,omitempty"`
	JitterMs    int `yaml:"jitterMs,omitempty"`
}

// SessionConfig defines session lifecycle behavior.
type SessionConfig struct {
	TTLMinutes   int    `yaml:"ttlMinutes,omitempty"`
	SweepSeconds int    `yaml:"sweepSeconds,omitempty"`
	Store        string `yaml:"store,omitempty"` // "memory" | "sqlite"
}

// LimitsConfig bounds inbound messages and attachments.
type LimitsConfig struct {
	MaxMessageChars int   `yaml:"maxMessageChars,omitempty"`
	MaxFileBytes    int64 `yaml:"maxFileBytes,omitempty"`
	MaxFilePages    int   `yaml:"maxFilePages,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}
