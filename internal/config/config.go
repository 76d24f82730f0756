// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/spark-it/sparksol/internal/chain"
	"github.com/spark-it/sparksol/internal/vault"
)

type Config struct {
	Cluster             string   `mapstructure:"cluster"`
	MainnetRPCList      []string `mapstructure:"mainnet_rpc_list"`
	DevnetRPCList       []string `mapstructure:"devnet_rpc_list"`
	AttemptTimeout      int      `mapstructure:"attempt_timeout_ms"`
	ConfirmationTimeout int      `mapstructure:"confirmation_timeout_ms"`
	AwaitConfirmation   bool     `mapstructure:"await_confirmation"`
	ValidateDecimals    bool     `mapstructure:"validate_decimals"`
	DebugLogging        bool     `mapstructure:"debug_logging"`
	LogFile             string   `mapstructure:"log_file"`
	WalletsFile         string   `mapstructure:"wallets_file"`
	VaultProgramID      string   `mapstructure:"vault_program_id"`
	MetricsAddr         string   `mapstructure:"metrics_addr"`
}

const (
	DefaultCluster             = "devnet"
	DefaultAttemptTimeout      = 10_000
	DefaultConfirmationTimeout = 30_000
	DefaultLogFile             = "sparksol.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"cluster":                 DefaultCluster,
		"mainnet_rpc_list":        chain.DefaultMainnetEndpoints,
		"devnet_rpc_list":         chain.DefaultDevnetEndpoints,
		"attempt_timeout_ms":      DefaultAttemptTimeout,
		"confirmation_timeout_ms": DefaultConfirmationTimeout,
		"validate_decimals":       true,
		"log_file":                DefaultLogFile,
		"vault_program_id":        vault.DefaultProgramID.String(),
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

// Registry builds the endpoint registry from the configured RPC lists.
func (c *Config) Registry() (*chain.Registry, error) {
	return chain.NewRegistry(c.MainnetRPCList, c.DevnetRPCList)
}

// VaultProgram binds the vault SDK to the configured program deployment.
func (c *Config) VaultProgram() (vault.Program, error) {
	id, err := solana.PublicKeyFromBase58(c.VaultProgramID)
	if err != nil {
		return vault.Program{}, errors.New("invalid vault_program_id")
	}
	return vault.Program{ID: id}, nil
}

func validateConfig(cfg *Config) error {
	if _, err := chain.ParseCluster(cfg.Cluster); err != nil {
		return err
	}
	if len(cfg.MainnetRPCList) == 0 {
		return errors.New("mainnet_rpc_list is empty")
	}
	if len(cfg.DevnetRPCList) == 0 {
		return errors.New("devnet_rpc_list is empty")
	}
	for _, rpcURL := range append(cfg.MainnetRPCList, cfg.DevnetRPCList...) {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if _, err := solana.PublicKeyFromBase58(cfg.VaultProgramID); err != nil {
		return errors.New("invalid vault_program_id")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	// zero leaves attempts unbounded; only a negative value is nonsense
	if cfg.AttemptTimeout < 0 {
		return errors.New("invalid attempt_timeout_ms")
	}
	if cfg.ConfirmationTimeout <= 0 {
		return errors.New("invalid confirmation_timeout_ms")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("SPARKSOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envCluster := v.GetString("CLUSTER"); envCluster != "" {
		cfg.Cluster = envCluster
	}

	if envWallets := v.GetString("WALLETS_FILE"); envWallets != "" {
		cfg.WalletsFile = envWallets
	}

	if envRPCList := v.GetString("RPC_LIST"); envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			switch cfg.Cluster {
			case "mainnet":
				cfg.MainnetRPCList = cleanRPCs
			default:
				cfg.DevnetRPCList = cleanRPCs
			}
		}
	}
	return nil
}
