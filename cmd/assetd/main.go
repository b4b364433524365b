package main

import (
	"flag"
	"os"
	"path/filepath"

	"assetchain/config"
	"assetchain/core"
	"assetchain/observability/logging"
	"assetchain/rpc"
	"assetchain/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the node configuration file")
	rpcOverride := flag.String("rpc", "", "override the RPC listen address")
	flag.Parse()

	env := os.Getenv("ASSETCHAIN_ENV")
	logger := logging.Setup("assetd", env)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	nodeCfg, err := cfg.NodeConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("failed to open state database", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	node, err := core.NewNode(db, nodeCfg)
	if err != nil {
		logger.Error("failed to initialize node", "error", err)
		os.Exit(1)
	}

	addr := cfg.RPCAddress
	if *rpcOverride != "" {
		addr = *rpcOverride
	}

	logger.Info("node ready", "network", cfg.NetworkName, "dataDir", cfg.DataDir)
	server := rpc.NewServer(node, logger)
	if err := server.Start(addr); err != nil {
		logger.Error("RPC server stopped", "error", err)
		os.Exit(1)
	}
}
