package main

import (
	"os"
	"path/filepath"

	"github.com/tendermint/tendermint/libs/cli"

	cmd "github.com/rsuchain/rsuchain/cmd/rsuchaind/commands"
	"github.com/rsuchain/rsuchain/config"
)

func main() {
	rootCmd := cmd.RootCmd
	rootCmd.AddCommand(
		cmd.InitFilesCmd,
		cmd.ValidateGenesisCmd,
		cmd.StartCmd,
		cmd.VersionCmd,
	)

	home := os.ExpandEnv(filepath.Join("$HOME", config.DefaultRSUChainDir))
	if err := cli.PrepareBaseCmd(rootCmd, "RSU", home).Execute(); err != nil {
		os.Exit(1)
	}
}
