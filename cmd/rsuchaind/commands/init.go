package commands

import (
	"github.com/spf13/cobra"
	tmos "github.com/tendermint/tendermint/libs/os"

	"github.com/rsuchain/rsuchain/config"
	"github.com/rsuchain/rsuchain/types"
)

var (
	initializerID  string
	initializerMSP string
)

// InitFilesCmd initializes a fresh home directory.
var InitFilesCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the config file and the genesis app state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return initFilesWithConfig(conf, initializerID, initializerMSP)
	},
}

func init() {
	InitFilesCmd.Flags().StringVar(&initializerID, "initializer", "",
		"identity that initializes the RSU registry at genesis (registry left uninitialized if empty)")
	InitFilesCmd.Flags().StringVar(&initializerMSP, "initializer_msp", "",
		"membership provider of the initializer")
}

func initFilesWithConfig(c *config.Config, initializer, msp string) error {
	cfgFile := config.ConfigFile(c.RootDir)
	if tmos.FileExists(cfgFile) {
		logger.Info("Found config file", "path", cfgFile)
	} else {
		if err := config.WriteConfigFile(c.RootDir, c); err != nil {
			return err
		}
		logger.Info("Generated config file", "path", cfgFile)
	}

	genFile := c.GenesisFile()
	if tmos.FileExists(genFile) {
		logger.Info("Found genesis app state", "path", genFile)
		return nil
	}

	var gs types.GenesisState
	if initializer != "" {
		gs.Authorities = &types.GenesisAuthorities{
			Initializer: types.Caller{ID: initializer, MSPID: msp},
			RSUs:        []types.RegisterRSUMsg{},
		}
	}
	if err := c.WriteGenesisFile(gs); err != nil {
		return err
	}
	logger.Info("Generated genesis app state", "path", genFile)
	return nil
}

// ValidateGenesisCmd checks the genesis app state file.
var ValidateGenesisCmd = &cobra.Command{
	Use:   "validate-genesis",
	Short: "Validate the genesis app state file",
	RunE: func(cmd *cobra.Command, args []string) error {
		gs, err := conf.LoadGenesisFile()
		if err != nil {
			return err
		}
		rsus := 0
		if gs.Authorities != nil {
			rsus = len(gs.Authorities.RSUs)
		}
		logger.Info("Genesis app state is valid", "path", conf.GenesisFile(),
			"authorities", gs.Authorities != nil, "rsus", rsus, "vehicles", len(gs.Vehicles))
		return nil
	},
}
