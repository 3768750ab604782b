// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for echoreply.
package config

import "time"

// Provider identifies which language-model backend is active.
type Provider string

// Supported providers.
const (
	// ProviderLocal is a locally hosted, OpenAI-compatible model server.
	ProviderLocal Provider = "local"
	// ProviderHosted is a hosted third-party completions API.
	ProviderHosted Provider = "hosted"
)

// Config is the top-level configuration structure. Configuration is
// replaced wholesale on reload; consumers must take a fresh snapshot
// on every operation rather than caching derived state.
type Config struct {
	Server ServerConfig `yaml:"server"`
	AI     AIConfig     `yaml:"ai"`
	Reply  ReplyConfig  `yaml:"reply"`
	Memory MemoryConfig `yaml:"memory"`
	Probe  ProbeConfig  `yaml:"probe"`
	Reload ReloadConfig `yaml:"reload"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	// Listen is the address the gateway binds to.
	Listen string `yaml:"listen"`

	// AuthToken protects the admin endpoints. Empty disables them.
	AuthToken string `yaml:"auth_token"`
}

// AIConfig is the language-model subset of the configuration.
type AIConfig struct {
	// Enabled turns the AI reply path on. When false the engine only
	// evaluates static rules.
	Enabled bool `yaml:"enabled"`

	// Provider selects the active backend: "local" or "hosted".
	Provider Provider `yaml:"provider"`

	Local  LocalConfig  `yaml:"local"`
	Hosted HostedConfig `yaml:"hosted"`

	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt"`

	// ContextHistoryEnabled includes windowed conversation history in
	// the context sent to the provider.
	ContextHistoryEnabled bool `yaml:"context_history_enabled"`

	// MaxContextMessages caps how many stored history entries are
	// included per request. Must be >= 1.
	MaxContextMessages int `yaml:"max_context_messages"`

	// RequestTimeout is the hard deadline for one generation attempt.
	// Must be >= 1s.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Backoff BackoffConfig `yaml:"backoff"`
}

// LocalConfig configures the local model server provider.
type LocalConfig struct {
	// Endpoint is the host the model server listens on (no scheme).
	Endpoint string `yaml:"endpoint"`

	// Port must be in [1, 65535].
	Port int `yaml:"port"`

	Model string `yaml:"model"`
}

// HostedConfig configures the hosted API provider.
type HostedConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`

	// BaseURL overrides the default hosted API base URL.
	BaseURL string `yaml:"base_url"`
}

// BackoffConfig tunes the per-provider error tracker.
type BackoffConfig struct {
	// BaseDelay is the cooldown after the first consecutive error.
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration `yaml:"max_delay"`

	// MaxErrors is the consecutive-error threshold that opens the circuit.
	MaxErrors int `yaml:"max_errors"`

	// RecoveryTime, when positive, auto-closes an open circuit once that
	// much time has passed since the last error. Zero keeps the circuit
	// open until a manual reset. Applied uniformly to both providers.
	RecoveryTime time.Duration `yaml:"recovery_time"`
}

// ReplyConfig is the reply-policy subset of the configuration.
type ReplyConfig struct {
	// Enabled turns the whole engine on. When false every message
	// terminates with no reply.
	Enabled bool `yaml:"enabled"`

	// RandomSkipProbability in [0,1] is the chance a message is
	// silently skipped before any rule or AI attempt.
	RandomSkipProbability float64 `yaml:"random_skip_probability"`

	// MaxReplyLength truncates replies to this many characters.
	// Zero means unlimited.
	MaxReplyLength int `yaml:"max_reply_length"`

	// MaxRepliesPerMinute / MaxRepliesPerHour bound the reply rate.
	// Zero means unlimited. Enforced by the gateway, not the engine.
	MaxRepliesPerMinute int `yaml:"max_replies_per_minute"`
	MaxRepliesPerHour   int `yaml:"max_replies_per_hour"`

	// Rules are evaluated by priority (descending) when the AI path is
	// disabled, unavailable, or errors unexpectedly.
	Rules []ReplyRule `yaml:"rules"`
}

// ReplyRule is a static pattern-to-reply mapping.
type ReplyRule struct {
	// Match is a literal substring, or a regular expression when Regex is set.
	Match string `yaml:"match"`

	Reply string `yaml:"reply"`

	// Priority orders evaluation; higher runs first. Missing = 0.
	Priority int `yaml:"priority"`

	// CaseSensitive controls substring matching only; regex patterns
	// match the raw text as written.
	CaseSensitive bool `yaml:"case_sensitive"`

	Regex bool `yaml:"regex"`
}

// MemoryConfig configures the user-memory store.
type MemoryConfig struct {
	// Path is the SQLite database file. Empty selects the in-memory store.
	Path string `yaml:"path"`

	// MaxSnippets caps how many message snippets are kept per user.
	MaxSnippets int `yaml:"max_snippets"`
}

// ProbeConfig configures the periodic connection probe.
type ProbeConfig struct {
	// Schedule is a five-field cron expression. Empty disables probing.
	Schedule string `yaml:"schedule"`
}

// ReloadConfig configures configuration hot reload.
type ReloadConfig struct {
	// PollInterval is how often the config file is checked for changes.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Defaults fills zero-value fields with sensible defaults.
func (c *Config) Defaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8470"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderLocal
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 256
	}
	if c.AI.MaxContextMessages == 0 {
		c.AI.MaxContextMessages = 10
	}
	if c.AI.RequestTimeout == 0 {
		c.AI.RequestTimeout = 10 * time.Second
	}
	c.AI.Backoff.defaults()
	if c.Reply.MaxReplyLength == 0 {
		c.Reply.MaxReplyLength = 500
	}
	if c.Memory.MaxSnippets == 0 {
		c.Memory.MaxSnippets = 20
	}
	if c.Reload.PollInterval == 0 {
		c.Reload.PollInterval = 5 * time.Second
	}
}

func (b *BackoffConfig) defaults() {
	if b.BaseDelay == 0 {
		b.BaseDelay = time.Second
	}
	if b.MaxDelay == 0 {
		b.MaxDelay = 30 * time.Second
	}
	if b.MaxErrors == 0 {
		b.MaxErrors = 5
	}
}
