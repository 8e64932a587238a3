// Package configs loads the YAML configuration file plus the
// environment-sourced secrets (DSN, relay API keys, HTTP signing key)
// the engine and HTTP control plane need to start.
package configs

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"raysentinel/internal/core/domain"
)

// Config is the entire structure parsed from config.yml.
type Config struct {
	RPC           RPCYAMLData             `yaml:"rpc"`
	PoolStream    PoolStreamYAMLData      `yaml:"pool_stream"`
	Relays        map[string]RelayYAMLData `yaml:"relays"`
	HTTP          HTTPYAMLData            `yaml:"http"`
	Persistence   PersistenceYAMLData     `yaml:"persistence"`
	LogLevel      string                  `yaml:"log_level"`
	DefaultConfig StrategyYAMLData        `yaml:"default_strategy"`
}

// PersistenceYAMLData configures the MySQL DSN, read from the
// environment so credentials never land in config.yml.
type PersistenceYAMLData struct {
	DSNEnv string `yaml:"dsn_env"`
}

// RPCYAMLData configures the JSON-RPC endpoint and background refresh.
type RPCYAMLData struct {
	Endpoint                string `yaml:"endpoint"`
	BlockhashRefreshSeconds int    `yaml:"blockhash_refresh_seconds"`
}

// PoolStreamYAMLData configures the upstream chain-event subscriber.
type PoolStreamYAMLData struct {
	Endpoint string `yaml:"endpoint"`
	PoolID   string `yaml:"pool_id"`
}

// RelayYAMLData configures one MEV relay endpoint; the API key itself
// is read from the environment, never committed to config.yml.
type RelayYAMLData struct {
	Endpoint  string `yaml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// HTTPYAMLData configures the control-plane listener.
type HTTPYAMLData struct {
	ListenAddr     string `yaml:"listen_addr"`
	SigningKeyEnv  string `yaml:"signing_key_env"`
}

// StrategyYAMLData is the fleet-wide default_strategy section of
// config.yml. Signup in the HTTP surface does not read it; new accounts
// are seeded with values built into httpapi's Signup handler.
type StrategyYAMLData struct {
	BuySolAmount             uint64  `yaml:"buy_sol_amount"`
	EntryPercent             float64 `yaml:"entry_percent"`
	EntrySlippage            float64 `yaml:"entry_slippage"`
	ExitSlippage             float64 `yaml:"exit_slippage"`
	StopLoss                 float64 `yaml:"stop_loss"`
	TakeProfit               float64 `yaml:"take_profit"`
	AutoExitSeconds          int64   `yaml:"auto_exit_seconds"`
	ConfirmService           string  `yaml:"confirm_service"`
	ComputeUnits             uint32  `yaml:"compute_units"`
	PriorityFeeMicroLamports uint64  `yaml:"priority_fee_micro_lamports"`
	RelayTipLamports         uint64  `yaml:"relay_tip_lamports"`
}

// ConfigError wraps a missing or malformed field so the caller can fail
// fast at startup rather than panic deep in the engine.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configs: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LoadConfig reads and parses config.yml into a Config struct.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.RPC.Endpoint == "" {
		return &ConfigError{Field: "rpc.endpoint", Err: fmt.Errorf("required")}
	}
	if c.PoolStream.Endpoint == "" {
		return &ConfigError{Field: "pool_stream.endpoint", Err: fmt.Errorf("required")}
	}
	if len(c.Relays) == 0 {
		return &ConfigError{Field: "relays", Err: fmt.Errorf("at least one relay must be configured")}
	}
	return nil
}

// BlockhashRefreshInterval converts the YAML seconds field into a
// time.Duration, defaulting to 5s when unset.
func (c *Config) BlockhashRefreshInterval() time.Duration {
	if c.RPC.BlockhashRefreshSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.RPC.BlockhashRefreshSeconds) * time.Second
}

// RelayAPIKey resolves the API key for one relay from its configured
// environment variable.
func (c *Config) RelayAPIKey(service domain.ConfirmService) (string, error) {
	data, ok := c.Relays[string(service)]
	if !ok {
		return "", &ConfigError{Field: "relays." + string(service), Err: fmt.Errorf("not configured")}
	}
	key := os.Getenv(data.APIKeyEnv)
	if key == "" {
		return "", &ConfigError{Field: data.APIKeyEnv, Err: fmt.Errorf("environment variable not set")}
	}
	return key, nil
}

// RelayEndpoint returns the endpoint configured for one relay service.
func (c *Config) RelayEndpoint(service domain.ConfirmService) (string, error) {
	data, ok := c.Relays[string(service)]
	if !ok {
		return "", &ConfigError{Field: "relays." + string(service), Err: fmt.Errorf("not configured")}
	}
	return data.Endpoint, nil
}

// PersistenceDSN resolves the MySQL data source name from the
// environment.
func (c *Config) PersistenceDSN() (string, error) {
	dsn := os.Getenv(c.Persistence.DSNEnv)
	if dsn == "" {
		return "", &ConfigError{Field: c.Persistence.DSNEnv, Err: fmt.Errorf("environment variable not set")}
	}
	return dsn, nil
}

// HTTPSigningKey resolves the JWT signing secret from the environment.
func (c *Config) HTTPSigningKey() (string, error) {
	key := os.Getenv(c.HTTP.SigningKeyEnv)
	if key == "" {
		return "", &ConfigError{Field: c.HTTP.SigningKeyEnv, Err: fmt.Errorf("environment variable not set")}
	}
	return key, nil
}

// ToDomainStrategy converts the fleet-wide default strategy into the
// domain type.
func (c *Config) ToDomainStrategy() domain.Strategy {
	d := c.DefaultConfig
	return domain.Strategy{
		BuySolAmount:             d.BuySolAmount,
		EntryPercent:             d.EntryPercent,
		EntrySlippage:            d.EntrySlippage,
		ExitSlippage:             d.ExitSlippage,
		StopLoss:                 d.StopLoss,
		TakeProfit:               d.TakeProfit,
		AutoExitSeconds:          d.AutoExitSeconds,
		ConfirmService:           domain.ConfirmService(d.ConfirmService),
		ComputeUnits:             d.ComputeUnits,
		PriorityFeeMicroLamports: d.PriorityFeeMicroLamports,
		RelayTipLamports:         d.RelayTipLamports,
	}
}
