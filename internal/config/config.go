package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
)

// Config is the fully resolved, typed view of a merged Partial. It is the
// immutable value an operation actually reads from; callers never see a
// Partial directly once resolution is done.
type Config struct {
	DefaultProvider string                    `mapstructure:"default_provider"`
	Providers       map[string]ProviderConfig `mapstructure:"providers"`
	MCP             MCPConfig                 `mapstructure:"mcp"`
	Cache           CacheConfig               `mapstructure:"cache"`
	Assistant       AssistantConfig           `mapstructure:"assistant"`
	Tool            ToolConfig                `mapstructure:"tool"`
	UI              UIConfig                  `mapstructure:"ui"`
}

// UIConfig holds presentation settings consumed by the boundary process
// (not this module's concern beyond carrying the value through).
type UIConfig struct {
	SyntaxTheme string `mapstructure:"syntax_theme"`
}

// CacheConfig holds web/search cache settings.
type CacheConfig struct {
	TTLHours int `mapstructure:"ttl_hours"`
}

// CacheTTLOrDefault returns the configured TTL or 24 hours if unset.
func (c CacheConfig) CacheTTLOrDefault() int {
	if c.TTLHours <= 0 {
		return 24
	}
	return c.TTLHours
}

// AssistantConfig holds per-turn model-invocation defaults.
type AssistantConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// ApprovalMode is one of the three tool approval behaviors.
type ApprovalMode string

const (
	ApprovalAlways ApprovalMode = "always"
	ApprovalAsk    ApprovalMode = "ask"
	ApprovalEdit   ApprovalMode = "edit"
)

// ToolConfig holds the Tool Coordinator's approval-workflow defaults plus
// any per-tool overrides.
type ToolConfig struct {
	DefaultRun    ApprovalMode                  `mapstructure:"default_run"`
	DefaultResult ApprovalMode                  `mapstructure:"default_result"`
	Approvals     map[string]ToolApprovalConfig `mapstructure:"approvals"`
	// Choice is the default tool-choice policy applied to every turn, in the
	// same syntax tool.ParseChoice accepts: "auto", "none", "required", a bare
	// tool name, or "fn:<name>". Empty means "auto".
	Choice string `mapstructure:"choice"`
}

// ChoiceOrDefault returns the configured tool-choice string, defaulting to
// "auto" when unset.
func (t ToolConfig) ChoiceOrDefault() string {
	if t.Choice == "" {
		return "auto"
	}
	return t.Choice
}

// ToolApprovalConfig overrides the default run/result approval mode for one
// named tool.
type ToolApprovalConfig struct {
	Run    ApprovalMode `mapstructure:"run"`
	Result ApprovalMode `mapstructure:"result"`
}

// RunFor returns the effective run-approval mode for a named tool.
func (t ToolConfig) RunFor(name string) ApprovalMode {
	if a, ok := t.Approvals[name]; ok && a.Run != "" {
		return a.Run
	}
	if t.DefaultRun != "" {
		return t.DefaultRun
	}
	return ApprovalAsk
}

// ResultFor returns the effective result-approval mode for a named tool.
func (t ToolConfig) ResultFor(name string) ApprovalMode {
	if a, ok := t.Approvals[name]; ok && a.Result != "" {
		return a.Result
	}
	if t.DefaultResult != "" {
		return t.DefaultResult
	}
	return ApprovalAlways
}

// ProviderConfig holds LLM provider connection settings.
type ProviderConfig struct {
	Kind        string  `mapstructure:"kind"` // ollama, anthropic, vllm, opencode, zen, mock
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// MCPConfig holds MCP tool-server settings.
type MCPConfig struct {
	Upstream string            `mapstructure:"upstream"`
	Servers  []MCPServerConfig `mapstructure:"servers"`
}

// MCPServerConfig describes one stdio-spawned MCP tool server.
type MCPServerConfig struct {
	Name     string   `mapstructure:"name"`
	Command  string   `mapstructure:"command"`
	Args     []string `mapstructure:"args"`
	Checksum string   `mapstructure:"checksum"`
}

// Decode materializes p into a typed Config.
func Decode(p *Partial) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("config: build decoder: %w", err)
	}
	if err := decoder.Decode(p.Materialize()); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Validate returns an error describing every problem found in c.
func (c *Config) Validate() error {
	var errs []error
	for name, providerCfg := range c.Providers {
		errs = append(errs, validateProviderConfig(name, providerCfg)...)
	}
	if c.DefaultProvider != "" {
		if _, ok := c.Providers[c.DefaultProvider]; !ok {
			errs = append(errs, fmt.Errorf("default_provider=%q does not exist in providers", c.DefaultProvider))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateProviderConfig(name string, cfg ProviderConfig) []error {
	var errs []error
	if cfg.Endpoint != "" {
		if err := validateEndpoint(cfg.Endpoint); err != nil {
			errs = append(errs, fmt.Errorf("providers.%s.endpoint=%q is invalid: %v", name, cfg.Endpoint, err))
		}
	}
	if cfg.Temperature < 0.0 || cfg.Temperature > 2.0 {
		errs = append(errs, fmt.Errorf("providers.%s.temperature=%v must be between 0.0 and 2.0", name, cfg.Temperature))
	}
	return errs
}

func validateEndpoint(value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("missing scheme or host")
	}
	return nil
}

// DataDir returns the path to jp's data directory (~/.config/jp).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jp"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return dir, nil
}
