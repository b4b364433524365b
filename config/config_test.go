package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"assetchain/native/escrow"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, ":8080", cfg.RPCAddress)
	require.Equal(t, "assetchain-local", cfg.NetworkName)
	require.Equal(t, escrow.DefaultSettleWindow, cfg.TradeWindowSeconds)
	require.Equal(t, uint32(300), cfg.CommissionBps)
	require.NoError(t, cfg.Validate())
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
RPCAddress = ":9090"
DataDir = "/tmp/assetchain"
AdminAddress = "0x0000000000000000000000000000000000000001"
FeeTreasuryAddress = "0x0000000000000000000000000000000000000002"
BaseURI = "https://meta.example.com/"
MintBasePrice = "10"
MintAdditionalPrice = "5"
TradeWindowSeconds = 7200
CommissionBps = 250

[[GenesisAccounts]]
Address = "0x0000000000000000000000000000000000000003"
Balance = "1000000000000000000"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.RPCAddress)
	require.Equal(t, int64(7200), cfg.TradeWindowSeconds)

	nodeCfg, err := cfg.NodeConfig()
	require.NoError(t, err)
	require.Equal(t, byte(1), nodeCfg.Admin[19])
	require.Equal(t, byte(2), nodeCfg.FeeTreasury[19])
	require.Equal(t, int64(10), nodeCfg.MintBasePrice.Int64())
	require.Equal(t, int64(5), nodeCfg.MintAdditionalPrice.Int64())
	require.Len(t, nodeCfg.Genesis, 1)
	require.Equal(t, "1000000000000000000", nodeCfg.Genesis[0].Balance.String())
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			RPCAddress:         ":8080",
			DataDir:            "./data",
			AdminAddress:       "0x0000000000000000000000000000000000000001",
			FeeTreasuryAddress: "0x0000000000000000000000000000000000000002",
		}
	}

	cfg := base()
	cfg.AdminAddress = "not-hex"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.FeeTreasuryAddress = "0x1234"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.WhitelistRoot = "0xabcd"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.MintBasePrice = "-5"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.CommissionBps = 10_001
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.GenesisAccounts = []GenesisAccount{{Address: "bad", Balance: "10"}}
	require.Error(t, cfg.Validate())
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x0000000000000000000000000000000000000042")
	require.NoError(t, err)
	require.Equal(t, byte(0x42), addr[19])

	_, err = ParseAddress("")
	require.Error(t, err)

	// The prefix is optional.
	bare, err := ParseAddress("0000000000000000000000000000000000000042")
	require.NoError(t, err)
	require.Equal(t, addr, bare)
}
