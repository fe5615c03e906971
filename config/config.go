package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// APIKeyConfig describes a single API key + secret pair accepted by the
// gateway, bound to the caller identity address used for guard checks.
type APIKeyConfig struct {
	Key      string `toml:"Key"`
	Secret   string `toml:"Secret"`
	Identity string `toml:"Identity"`
}

// AssetConfig declares a supported staking currency. Amounts are decimal
// strings in base units.
type AssetConfig struct {
	Symbol   string `toml:"Symbol"`
	Decimals uint8  `toml:"Decimals"`
	FeeBps   uint32 `toml:"FeeBps"`
	MinStake string `toml:"MinStake"`
	MaxStake string `toml:"MaxStake"`
}

// AllocConfig credits an account at genesis. Used for local networks and
// integration environments.
type AllocConfig struct {
	Address string `toml:"Address"`
	Token   string `toml:"Token"`
	Amount  string `toml:"Amount"`
}

type Config struct {
	ListenAddress      string         `toml:"ListenAddress"`
	DataDir            string         `toml:"DataDir"`
	Environment        string         `toml:"Environment"`
	LogFile            string         `toml:"LogFile"`
	TreasuryAddress    string         `toml:"TreasuryAddress"`
	RelayerAddress     string         `toml:"RelayerAddress"`
	AdminAddresses     []string       `toml:"AdminAddresses"`
	EvidenceWindowSecs int64          `toml:"EvidenceWindowSecs"`
	AppealWindowSecs   int64          `toml:"AppealWindowSecs"`
	WriteRatePerSecond float64        `toml:"WriteRatePerSecond"`
	WriteRateBurst     int            `toml:"WriteRateBurst"`
	APIKeys            []APIKeyConfig `toml:"APIKeys"`
	Assets             []AssetConfig  `toml:"Assets"`
	GenesisAlloc       []AllocConfig  `toml:"GenesisAlloc"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./arbchain-data"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if cfg.WriteRatePerSecond <= 0 {
		cfg.WriteRatePerSecond = 5
	}
	if cfg.WriteRateBurst <= 0 {
		cfg.WriteRateBurst = 10
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = []AssetConfig{{
			Symbol:   "ARB",
			Decimals: 18,
			FeeBps:   250,
			MinStake: "10000000000000000",     // 0.01
			MaxStake: "100000000000000000000", // 100
		}}
	}
}

func validate(cfg *Config) error {
	for i, asset := range cfg.Assets {
		if strings.TrimSpace(asset.Symbol) == "" {
			return fmt.Errorf("config: asset %d missing symbol", i)
		}
		if strings.TrimSpace(asset.MinStake) == "" || strings.TrimSpace(asset.MaxStake) == "" {
			return fmt.Errorf("config: asset %s missing stake bounds", asset.Symbol)
		}
	}
	for i, key := range cfg.APIKeys {
		if strings.TrimSpace(key.Key) == "" || strings.TrimSpace(key.Secret) == "" {
			return fmt.Errorf("config: api key %d incomplete", i)
		}
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
