package config

// Config represents the full application configuration.
type Config struct {
	Server        ServerConfig              `yaml:"server"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Options       OptionsConfig             `yaml:"options"`
	Limits        map[string]LimitConfig    `yaml:"limits"`
	Store         StoreConfig               `yaml:"store"`
	Observability ObservabilityConfig       `yaml:"observability"`
}

// ServerConfig holds the HTTP listener settings. Debug enables the
// debug field in error responses; it must never be on in production.
type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Debug bool   `yaml:"debug"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"apiKey"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	MaxTokens int    `yaml:"maxTokens"`

	// Timeout overrides the default request timeout when set.
	Timeout *string `yaml:"timeout,omitempty"`
}

// OptionsConfig enumerates the selectable generation options and their
// defaults. Validation compares submitted values against these sets.
type OptionsConfig struct {
	Styles       []string `yaml:"styles"`
	Lengths      []string `yaml:"lengths"`
	Creativities []string `yaml:"creativities"`
	Languages    []string `yaml:"languages"`

	// LengthWords maps a length option to its target word count.
	LengthWords map[string]int `yaml:"lengthWords"`

	Defaults OptionDefaults `yaml:"defaults"`
}

// OptionDefaults are the pre-selected option values.
type OptionDefaults struct {
	Style      string `yaml:"style"`
	Length     string `yaml:"length"`
	Creativity string `yaml:"creativity"`
	Language   string `yaml:"language"`
}

// LimitConfig is the rate-limit policy for one action class. Window and
// BlockFor are duration strings ("1m", "5m").
type LimitConfig struct {
	Requests int    `yaml:"requests"`
	Window   string `yaml:"window"`
	BlockFor string `yaml:"blockFor"`
}

// StoreConfig configures the predefined-instruction persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures provider request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`         // debug, info, error
	Format        string `yaml:"format"`        // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"` // Redact API keys in logs
}

// MetricsConfig configures in-process metrics tracking.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Server = chooseServer(base.Server, overlay.Server)
	result.Options = chooseOptions(base.Options, overlay.Options)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)
	result.Providers = mergeProviders(base.Providers, overlay.Providers)
	result.Limits = mergeLimits(base.Limits, overlay.Limits)

	return result
}

func mergeProviders(base, overlay map[string]ProviderConfig) map[string]ProviderConfig {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]ProviderConfig, len(base)+len(overlay))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range overlay {
		result[key] = value
	}
	return result
}

func mergeLimits(base, overlay map[string]LimitConfig) map[string]LimitConfig {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	result := make(map[string]LimitConfig, len(base)+len(overlay))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range overlay {
		result[key] = value
	}
	return result
}

func chooseServer(base, overlay ServerConfig) ServerConfig {
	result := base
	if overlay.Addr != "" {
		result.Addr = overlay.Addr
	}
	if overlay.Debug {
		result.Debug = true
	}
	return result
}

func chooseOptions(base, overlay OptionsConfig) OptionsConfig {
	result := base
	if len(overlay.Styles) > 0 {
		result.Styles = overlay.Styles
	}
	if len(overlay.Lengths) > 0 {
		result.Lengths = overlay.Lengths
	}
	if len(overlay.Creativities) > 0 {
		result.Creativities = overlay.Creativities
	}
	if len(overlay.Languages) > 0 {
		result.Languages = overlay.Languages
	}
	if len(overlay.LengthWords) > 0 {
		result.LengthWords = overlay.LengthWords
	}
	if overlay.Defaults != (OptionDefaults{}) {
		result.Defaults = overlay.Defaults
	}
	return result
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base

	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	if overlay.Metrics.Enabled {
		result.Metrics = overlay.Metrics
	}

	return result
}
