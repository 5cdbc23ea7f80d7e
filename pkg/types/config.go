package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that call provider APIs.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "stackscout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PlannerConfig holds settings for the query-planning stage.
type PlannerConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the reasoning model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the reasoning model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// PlanTimeout bounds the single planning call (default 30s). Timing out
	// is surfaced as a distinct planner-timeout error so callers can prompt
	// the user to retry.
	PlanTimeout time.Duration `json:"plan_timeout" yaml:"plan_timeout"`

	// MaxQueries caps the plan size (default 20). Over-generation beyond the
	// cap is truncated, not rejected; the cap is the sole admission control
	// on downstream fan-out.
	MaxQueries int `json:"max_queries" yaml:"max_queries"`

	// MaxTokens bounds the model's response length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// ResearchConfig holds settings for the per-category research stage.
type ResearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the search-augmented model identifier (e.g. "sonar").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the search model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// QueryTimeout bounds each category research call (default 20s). A
	// timed-out category resolves to an empty-options result and never
	// aborts sibling categories.
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`

	// MaxTokens bounds the model's response length (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// AuthToken, when non-empty, is required as a bearer token on API
	// requests. An empty token leaves the gate open for local use.
	AuthToken string `json:"auth_token,omitempty" yaml:"auth_token,omitempty"`

	// ReadTimeout and WriteTimeout bound request handling. The write timeout
	// must exceed the planning and research timeouts combined or in-flight
	// pipelines are cut off mid-response.
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// StoreConfig holds settings for run persistence.
type StoreConfig struct {
	// DataDir is the directory holding the runs database (default "data/").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxRuns limits how many runs a listing returns (default 50).
	MaxRuns int `json:"max_runs" yaml:"max_runs"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum level emitted: debug, info, warn, or error.
	Level string `json:"level" yaml:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `json:"development" yaml:"development"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Planner  PlannerConfig  `json:"planner" yaml:"planner"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}
