package configs

import (
	"os"
	"path/filepath"
	"testing"

	"raysentinel/internal/core/domain"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

const validConfigYAML = `
rpc:
  endpoint: "https://api.mainnet-beta.solana.com"
  blockhash_refresh_seconds: 5
pool_stream:
  endpoint: "wss://stream.example.com"
  pool_id: "pool123"
relays:
  JITO:
    endpoint: "https://jito.example.com"
    api_key_env: "JITO_API_KEY"
http:
  listen_addr: ":8080"
  signing_key_env: "HTTP_SIGNING_KEY"
log_level: "info"
default_strategy:
  buy_sol_amount: 1000000000
  entry_percent: 1.0
  take_profit: 10
  stop_loss: 5
  confirm_service: "JITO"
`

func TestLoadConfigValid(t *testing.T) {
	path := writeTestConfig(t, validConfigYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
	if cfg.RPC.Endpoint == "" {
		t.Fatal("expected rpc endpoint to be parsed")
	}
	if cfg.BlockhashRefreshInterval().Seconds() != 5 {
		t.Fatalf("expected 5s refresh interval")
	}
}

func TestLoadConfigMissingRPCEndpoint(t *testing.T) {
	path := writeTestConfig(t, `
pool_stream:
  endpoint: "wss://stream.example.com"
relays:
  JITO:
    endpoint: "https://jito.example.com"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for missing rpc.endpoint")
	}
}

func TestLoadConfigMissingRelays(t *testing.T) {
	path := writeTestConfig(t, `
rpc:
  endpoint: "https://api.mainnet-beta.solana.com"
pool_stream:
  endpoint: "wss://stream.example.com"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for missing relays")
	}
}

func TestRelayAPIKeyReadsFromEnvironment(t *testing.T) {
	path := writeTestConfig(t, validConfigYAML)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv("JITO_API_KEY", "secret-value")

	key, err := cfg.RelayAPIKey(domain.ConfirmServiceJito)
	if err != nil {
		t.Fatal(err)
	}
	if key != "secret-value" {
		t.Fatalf("expected secret-value, got %s", key)
	}
}

func TestRelayAPIKeyMissingEnvErrors(t *testing.T) {
	path := writeTestConfig(t, validConfigYAML)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	os.Unsetenv("JITO_API_KEY")

	if _, err := cfg.RelayAPIKey(domain.ConfirmServiceJito); err == nil {
		t.Fatal("expected error when env var unset")
	}
}

func TestToDomainStrategy(t *testing.T) {
	path := writeTestConfig(t, validConfigYAML)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	strat := cfg.ToDomainStrategy()
	if strat.ConfirmService != domain.ConfirmServiceJito {
		t.Fatalf("expected JITO, got %s", strat.ConfirmService)
	}
	if strat.BuySolAmount != 1_000_000_000 {
		t.Fatalf("unexpected buy sol amount: %d", strat.BuySolAmount)
	}
}
