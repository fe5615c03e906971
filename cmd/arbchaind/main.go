package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"arbchain/config"
	"arbchain/core/types"
	"arbchain/gateway"
	"arbchain/native/assets"
	"arbchain/native/dispute"
	"arbchain/native/escrow"
	"arbchain/native/evidence"
	"arbchain/native/oracle"
	"arbchain/observability/logging"
	"arbchain/state"
	"arbchain/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./config.toml", "path to the arbchaind config file")
	flag.Parse()

	if err := run(configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.SetupWithOptions("arbchaind", cfg.Environment, logging.Options{
		Path:       cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 28,
	})

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	manager := state.NewManager(db)

	registry := assets.NewRegistry(manager)
	for _, ac := range cfg.Assets {
		minStake, ok := new(big.Int).SetString(ac.MinStake, 10)
		if !ok {
			return fmt.Errorf("config: asset %s: invalid min stake %q", ac.Symbol, ac.MinStake)
		}
		maxStake, ok := new(big.Int).SetString(ac.MaxStake, 10)
		if !ok {
			return fmt.Errorf("config: asset %s: invalid max stake %q", ac.Symbol, ac.MaxStake)
		}
		if err := registry.Bootstrap(&assets.Asset{
			Symbol:   ac.Symbol,
			Decimals: ac.Decimals,
			FeeBps:   ac.FeeBps,
			MinStake: minStake,
			MaxStake: maxStake,
		}); err != nil {
			return fmt.Errorf("bootstrap asset %s: %w", ac.Symbol, err)
		}
	}

	ledger := escrow.NewLedger(manager)
	register := evidence.NewRegister(manager)
	engine := dispute.NewEngine(manager, ledger, register, registry)
	register.SetDisputeView(engine)

	bridge := oracle.NewBridge(manager)
	bridge.SetSink(engine)
	engine.SetOracle(bridge)
	engine.SetPauses(manager)
	engine.SetEmitter(gateway.NewLogEmitter(logger))
	if cfg.EvidenceWindowSecs > 0 || cfg.AppealWindowSecs > 0 {
		engine.SetWindows(cfg.EvidenceWindowSecs, cfg.AppealWindowSecs)
	}

	if cfg.TreasuryAddress != "" {
		treasury, err := types.ParseAddress(cfg.TreasuryAddress)
		if err != nil {
			return fmt.Errorf("config: treasury address: %w", err)
		}
		engine.SetTreasury(treasury)
	}

	if cfg.RelayerAddress != "" {
		relayer, err := types.ParseAddress(cfg.RelayerAddress)
		if err != nil {
			return fmt.Errorf("config: relayer address: %w", err)
		}
		if err := manager.GrantRole(oracle.RoleRelayer, relayer[:]); err != nil {
			return fmt.Errorf("grant relayer role: %w", err)
		}
	}
	for _, raw := range cfg.AdminAddresses {
		admin, err := types.ParseAddress(raw)
		if err != nil {
			return fmt.Errorf("config: admin address %q: %w", raw, err)
		}
		if err := manager.GrantRole(assets.RoleAdmin, admin[:]); err != nil {
			return fmt.Errorf("grant admin role: %w", err)
		}
	}

	for _, alloc := range cfg.GenesisAlloc {
		addr, err := types.ParseAddress(alloc.Address)
		if err != nil {
			return fmt.Errorf("config: genesis address %q: %w", alloc.Address, err)
		}
		amount, ok := new(big.Int).SetString(alloc.Amount, 10)
		if !ok {
			return fmt.Errorf("config: genesis amount %q", alloc.Amount)
		}
		if err := manager.Credit(addr, alloc.Token, amount); err != nil {
			return fmt.Errorf("genesis credit %s: %w", alloc.Address, err)
		}
	}

	creds := make(map[string]gateway.Credential, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		identity, err := types.ParseAddress(key.Identity)
		if err != nil {
			return fmt.Errorf("config: api key %s identity: %w", key.Key, err)
		}
		creds[key.Key] = gateway.NewCredential(key.Secret, identity)
	}
	auth := gateway.NewAuthenticator(creds, 0, nil)

	limiter := rate.NewLimiter(rate.Limit(cfg.WriteRatePerSecond), cfg.WriteRateBurst)
	server := gateway.NewServer(engine, bridge, registry, manager, auth, logger, limiter)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "address", cfg.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
