// Package config loads and validates Callsight configuration.
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
		Gateway: GatewayConfig{
			Port: 18790,
			Bind: "loopback",
		},
		LLM: LLMConfig{
			Provider:  "anthropic",
			MaxTokens: 4096,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
