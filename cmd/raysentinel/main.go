// Command raysentinel is the entrypoint: it wires configuration,
// persistence, the RPC/relay transports, and the engine together, then
// drains the engine's Report stream onto stdout as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"raysentinel/configs"
	"raysentinel/internal/core/domain"
	"raysentinel/internal/core/engine"
	"raysentinel/internal/core/lifecycle"
	"raysentinel/internal/core/position"
	"raysentinel/internal/core/submit"
	"raysentinel/internal/core/swapbuild"
	"raysentinel/internal/db"
	"raysentinel/internal/httpapi"
	"raysentinel/internal/ingest"
	"raysentinel/internal/relay"
	"raysentinel/internal/rpcclient"
	"raysentinel/internal/txbuild"
)

func main() {
	conf := mustLoadConfig("configs/config.yml")

	dsn, err := conf.PersistenceDSN()
	if err != nil {
		panic(err)
	}
	store, err := db.Open(dsn)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	rpcCli := rpcclient.New(conf.RPC.Endpoint, conf.BlockhashRefreshInterval())
	defer rpcCli.Close()

	relays := mustBuildRelays(conf)

	pipeline := &submit.Pipeline{
		Blockhash: rpcCli,
		Sim:       rpcCli,
		Compiler:  txbuild.Compiler{},
		Relays:    relays,
	}

	positionStore := position.New()
	lc := &lifecycle.Manager{
		Store:    positionStore,
		Configs:  configRepo{store: store},
		Trades:   store,
		Registry: newMemRegistry(),
	}

	eng := &engine.Engine{
		Store:     positionStore,
		Lifecycle: lc,
		Pipeline:  pipeline,
		Adapters:  adapterFor,
	}

	reportChan := make(chan engine.Report)
	eng.Reporter = reportChan

	go serveHTTP(conf, store, lc)

	source := ingest.Source(ingest.NewFakeSource(64))
	ctx := context.Background()
	events, err := source.Start(ctx, conf.PoolStream.PoolID)
	if err != nil {
		panic(err)
	}

	go func() {
		for raw := range events {
			eng.HandleEvent(ctx, raw, conf.PoolStream.PoolID)
		}
	}()

	for report := range reportChan {
		line, err := report.ToJSON()
		if err != nil {
			log.Printf("raysentinel: failed to marshal report: %v", err)
			continue
		}
		fmt.Println(line)
	}
}

func mustLoadConfig(path string) *configs.Config {
	conf, err := configs.LoadConfig(path)
	if err != nil {
		panic(fmt.Errorf("raysentinel: startup config: %w", err))
	}
	return conf
}

// serveHTTP starts the account/bot-config/trade-history control plane;
// a failure here is logged, not fatal, since the engine loop itself
// does not depend on it.
func serveHTTP(conf *configs.Config, store *db.Store, lc *lifecycle.Manager) {
	signingKey, err := conf.HTTPSigningKey()
	if err != nil {
		log.Printf("raysentinel: http control plane disabled: %v", err)
		return
	}

	server := &httpapi.Server{
		Store:     store,
		Auth:      httpapi.NewAuthService(signingKey, 24*time.Hour),
		Lifecycle: lc,
	}
	router := httpapi.NewRouter(server)

	addr := conf.HTTP.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	if err := router.Run(addr); err != nil {
		log.Printf("raysentinel: http control plane stopped: %v", err)
	}
}

func mustBuildRelays(conf *configs.Config) map[domain.ConfirmService]relay.Client {
	services := []domain.ConfirmService{domain.ConfirmServiceJito, domain.ConfirmServiceNozomi, domain.ConfirmServiceZeroSlot}
	clients := make(map[domain.ConfirmService]relay.Client)
	for _, service := range services {
		endpoint, err := conf.RelayEndpoint(service)
		if err != nil {
			continue
		}
		client, err := relay.ForService(service, endpoint)
		if err != nil {
			panic(err)
		}
		clients[service] = client
	}
	if len(clients) == 0 {
		panic("raysentinel: no relay clients configured")
	}
	return clients
}

// configRepo adapts the persistence Store to lifecycle.ConfigRepository:
// it loads the user's row and the first bot config listed for them, and
// base58-decodes the stored keypair, mirroring the original
// implementation's plaintext-base58 keypair column.
type configRepo struct {
	store *db.Store
}

func (r configRepo) Load(userID string) (domain.UserBotConfig, error) {
	user, err := r.store.FindUserByEmail(userID)
	if err != nil {
		return domain.UserBotConfig{}, fmt.Errorf("configRepo: load user %s: %w", userID, err)
	}

	configs, err := r.store.ListBotConfigs(user.ID)
	if err != nil || len(configs) == 0 {
		return domain.UserBotConfig{}, fmt.Errorf("configRepo: no bot config for user %s", userID)
	}
	cfg := configs[0]

	privateKey, err := base58.Decode(string(user.EncryptedKey))
	if err != nil {
		return domain.UserBotConfig{}, fmt.Errorf("configRepo: decode keypair for user %s: %w", userID, err)
	}

	return domain.UserBotConfig{
		UserID:     userID,
		PrivateKey: privateKey,
		PublicKey:  user.PublicKey,
		PoolID:     cfg.PoolID,
		Strategy:   cfg.ToDomainStrategy(),
	}, nil
}

// memRegistry is the in-memory active-user registry (spec.md's
// "active-user registry", independent of the position store).
type memRegistry struct {
	mu     sync.Mutex
	active map[string]bool
}

func newMemRegistry() *memRegistry { return &memRegistry{active: map[string]bool{}} }

func (r *memRegistry) Add(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[userID] = true
}

func (r *memRegistry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, userID)
}

func (r *memRegistry) Contains(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[userID]
}

// adapterFor resolves a PoolEvent's AMM family to the swap-builder
// policy that knows how to price and sequence it.
func adapterFor(event domain.PoolEvent) (swapbuild.AmmAdapter, bool) {
	switch event.TxType {
	case domain.AmmRaydiumV4SwapBaseIn:
		return swapbuild.ConstantProductBaseIn{Encoder: noopEncoder{}}, true
	case domain.AmmPumpSwapBuy, domain.AmmPumpSwapSell:
		return swapbuild.BondingCurveBuySell{Encoder: noopEncoder{}}, true
	default:
		return nil, false
	}
}

// noopEncoder is a placeholder AmmInstructionEncoder: the concrete
// Raydium/PumpSwap wire encoding is an external collaborator (a vendor
// IDL-generated instruction builder) this binary does not vendor.
type noopEncoder struct{}

func (noopEncoder) EncodeSwap(accounts swapbuild.Accounts, amountIn, minOut uint64, isBuy bool) (domain.Instruction, error) {
	label := "swap-buy"
	if !isBuy {
		label = "swap-sell"
	}
	payload, err := json.Marshal(struct {
		AmountIn uint64 `json:"amount_in"`
		MinOut   uint64 `json:"min_out"`
	}{amountIn, minOut})
	if err != nil {
		return domain.Instruction{}, fmt.Errorf("noopEncoder: marshal swap payload: %w", err)
	}
	return domain.Instruction{Label: label, Data: payload}, nil
}
