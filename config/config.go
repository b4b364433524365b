package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"assetchain/core"
	"assetchain/native/escrow"
)

// GenesisAccount seeds a ledger balance at first boot. Balance is a decimal
// string so TOML never truncates large values.
type GenesisAccount struct {
	Address string `toml:"Address"`
	Balance string `toml:"Balance"`
}

type Config struct {
	RPCAddress          string           `toml:"RPCAddress"`
	DataDir             string           `toml:"DataDir"`
	NetworkName         string           `toml:"NetworkName"`
	AdminAddress        string           `toml:"AdminAddress"`
	FeeTreasuryAddress  string           `toml:"FeeTreasuryAddress"`
	BaseURI             string           `toml:"BaseURI"`
	MintBasePrice       string           `toml:"MintBasePrice"`
	MintAdditionalPrice string           `toml:"MintAdditionalPrice"`
	WhitelistRoot       string           `toml:"WhitelistRoot"`
	TradeWindowSeconds  int64            `toml:"TradeWindowSeconds"`
	CommissionBps       uint32           `toml:"CommissionBps"`
	GenesisAccounts     []GenesisAccount `toml:"GenesisAccounts"`
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
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "assetchain-local"
	}
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8080"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./assetchain-data"
	}
	if c.TradeWindowSeconds <= 0 {
		c.TradeWindowSeconds = escrow.DefaultSettleWindow
	}
	if c.CommissionBps == 0 {
		c.CommissionBps = 300
	}
}

// Validate checks every address, root and amount field for well-formedness.
func (c *Config) Validate() error {
	if _, err := ParseAddress(c.AdminAddress); err != nil {
		return fmt.Errorf("config: AdminAddress: %w", err)
	}
	if _, err := ParseAddress(c.FeeTreasuryAddress); err != nil {
		return fmt.Errorf("config: FeeTreasuryAddress: %w", err)
	}
	if strings.TrimSpace(c.WhitelistRoot) != "" {
		if _, err := ParseRoot(c.WhitelistRoot); err != nil {
			return fmt.Errorf("config: WhitelistRoot: %w", err)
		}
	}
	if _, err := parseAmount(c.MintBasePrice); err != nil {
		return fmt.Errorf("config: MintBasePrice: %w", err)
	}
	if _, err := parseAmount(c.MintAdditionalPrice); err != nil {
		return fmt.Errorf("config: MintAdditionalPrice: %w", err)
	}
	if c.CommissionBps > 10_000 {
		return fmt.Errorf("config: CommissionBps must not exceed 10000")
	}
	for i, acc := range c.GenesisAccounts {
		if _, err := ParseAddress(acc.Address); err != nil {
			return fmt.Errorf("config: GenesisAccounts[%d].Address: %w", i, err)
		}
		if _, err := parseAmount(acc.Balance); err != nil {
			return fmt.Errorf("config: GenesisAccounts[%d].Balance: %w", i, err)
		}
	}
	return nil
}

// NodeConfig resolves the configuration into ledger parameters. Validate must
// have succeeded first.
func (c *Config) NodeConfig() (core.NodeConfig, error) {
	if err := c.Validate(); err != nil {
		return core.NodeConfig{}, err
	}
	admin, _ := ParseAddress(c.AdminAddress)
	treasury, _ := ParseAddress(c.FeeTreasuryAddress)
	base, _ := parseAmount(c.MintBasePrice)
	additional, _ := parseAmount(c.MintAdditionalPrice)
	var root [32]byte
	if strings.TrimSpace(c.WhitelistRoot) != "" {
		root, _ = ParseRoot(c.WhitelistRoot)
	}
	genesis := make([]core.GenesisAccount, 0, len(c.GenesisAccounts))
	for _, acc := range c.GenesisAccounts {
		addr, _ := ParseAddress(acc.Address)
		balance, _ := parseAmount(acc.Balance)
		genesis = append(genesis, core.GenesisAccount{Address: addr, Balance: balance})
	}
	return core.NodeConfig{
		Admin:               admin,
		FeeTreasury:         treasury,
		BaseURI:             c.BaseURI,
		MintBasePrice:       base,
		MintAdditionalPrice: additional,
		WhitelistRoot:       root,
		TradeWindowSeconds:  c.TradeWindowSeconds,
		CommissionBps:       c.CommissionBps,
		Genesis:             genesis,
	}, nil
}

// ParseAddress decodes a 20-byte hex address with optional 0x prefix.
func ParseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if cleaned == "" {
		return addr, fmt.Errorf("address must not be empty")
	}
	decoded, err := hex.DecodeString(cleaned)
	if err != nil {
		return addr, fmt.Errorf("invalid hex address: %w", err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("address must be %d bytes, got %d", len(addr), len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}

// ParseRoot decodes a 32-byte hex merkle root with optional 0x prefix.
func ParseRoot(raw string) ([32]byte, error) {
	var root [32]byte
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(cleaned)
	if err != nil {
		return root, fmt.Errorf("invalid hex root: %w", err)
	}
	if len(decoded) != len(root) {
		return root, fmt.Errorf("root must be %d bytes, got %d", len(root), len(decoded))
	}
	copy(root[:], decoded)
	return root, nil
}

func parseAmount(raw string) (*big.Int, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(cleaned, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:          ":8080",
		DataDir:             "./assetchain-data",
		NetworkName:         "assetchain-local",
		AdminAddress:        "0x" + strings.Repeat("00", 19) + "01",
		FeeTreasuryAddress:  "0x" + strings.Repeat("00", 19) + "02",
		BaseURI:             "https://assets.example.com/meta/",
		MintBasePrice:       "0",
		MintAdditionalPrice: "0",
		TradeWindowSeconds:  escrow.DefaultSettleWindow,
		CommissionBps:       300,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
