package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables expand to the empty string so a missing key is caught by
// validation instead of being sent to the provider literally.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so API keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Classifier.APIKey = expandEnvVars(cfg.Classifier.APIKey)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. A missing file produces defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			expandSensitiveFields(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields after a partial config file.
func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = def.Server.Bind
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = def.Server.AllowedOrigins
	}
	if cfg.Providers.Knowledge.BaseURL == "" {
		cfg.Providers.Knowledge = def.Providers.Knowledge
	}
	if cfg.Providers.Document.BaseURL == "" {
		cfg.Providers.Document = def.Providers.Document
	}
	if cfg.Providers.Database.BaseURL == "" {
		cfg.Providers.Database = def.Providers.Database
	}
	if cfg.Providers.Visualization.BaseURL == "" {
		cfg.Providers.Visualization = def.Providers.Visualization
	}
	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = def.Classifier.Model
	}
	if cfg.Classifier.APIKey == "" {
		cfg.Classifier.APIKey = def.Classifier.APIKey
	}
	if cfg.Classifier.TimeoutSeconds == 0 {
		cfg.Classifier.TimeoutSeconds = def.Classifier.TimeoutSeconds
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if cfg.Retry.BaseDelayMs == 0 {
		cfg.Retry.BaseDelayMs = def.Retry.BaseDelayMs
	}
	if cfg.Retry.MaxDelayMs == 0 {
		cfg.Retry.MaxDelayMs = def.Retry.MaxDelayMs
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = def.Session.TTLMinutes
	}
	if cfg.Session.SweepSeconds == 0 {
		cfg.Session.SweepSeconds = def.Session.SweepSeconds
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = def.Session.Store
	}
	if cfg.Limits.MaxMessageChars == 0 {
		cfg.Limits.MaxMessageChars = def.Limits.MaxMessageChars
	}
	if cfg.Limits.MaxFileBytes == 0 {
		cfg.Limits.MaxFileBytes = def.Limits.MaxFileBytes
	}
	if cfg.Limits.MaxFilePages == 0 {
		cfg.Limits.MaxFilePages = def.Limits.MaxFilePages
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

// applyEnvOverrides reads UNIROUTER_* environment variables and overrides
// config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UNIROUTER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("UNIROUTER_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("UNIROUTER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("UNIROUTER_SESSION_STORE"); v != "" {
		cfg.Session.Store = v
	}
}
