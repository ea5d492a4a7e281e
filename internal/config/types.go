package config

// Config is the root configuration for Callsight.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	LLM     LLMConfig     `yaml:"llm,omitempty"`
	CRM     CRMConfig     `yaml:"crm,omitempty"`
	Manuals ManualsConfig `yaml:"manuals,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// GatewayConfig controls the inbound HTTP server.
type GatewayConfig struct {
	Port           int        `yaml:"port,omitempty"`
	Bind           string     `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string     `yaml:"customBindHost,omitempty"`
	Auth           AuthConfig `yaml:"auth,omitempty"`
	AllowedOrigins []string   `yaml:"allowedOrigins,omitempty"`
}

// AuthConfig configures gateway authentication.
type AuthConfig struct {
	Token string `yaml:"token,omitempty"` // bearer token; supports ${ENV_VAR}
}

// LLMConfig selects and configures the completion provider used by the
// reasoning and summarization services.
type LLMConfig struct {
	Provider    string   `yaml:"provider,omitempty"` // "anthropic" | "openai"
	APIKey      string   `yaml:"apiKey,omitempty"`   // supports ${ENV_VAR}
	Model       string   `yaml:"model,omitempty"`
	Endpoint    string   `yaml:"endpoint,omitempty"` // custom endpoint for openai-compatible gateways
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// CRMConfig configures the CRM REST API the tools call.
type CRMConfig struct {
	BaseURL string `yaml:"baseUrl,omitempty"`
	Token   string `yaml:"token,omitempty"` // bearer token; supports ${ENV_VAR}
}

// ManualsConfig configures the company-manuals search endpoint.
type ManualsConfig struct {
	BaseURL string `yaml:"baseUrl,omitempty"`
	APIKey  string `yaml:"apiKey,omitempty"` // supports ${ENV_VAR}
}

// StoreConfig configures the history store.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file path, or ":memory:"
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}
