package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/cli"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/rsuchain/rsuchain/config"
)

var (
	conf   = config.DefaultConfig()
	logger = log.NewTMLogger(log.NewSyncWriter(os.Stdout))
)

func init() {
	registerFlagsRootCmd(RootCmd)
}

func registerFlagsRootCmd(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log_level", conf.LogLevel, "log level (debug | info | error | none)")
}

// ParseConfig retrieves the default environment configuration, sets up the
// root and ensures that the root exists.
func ParseConfig() (*config.Config, error) {
	c := config.DefaultConfig()
	if err := viper.Unmarshal(c); err != nil {
		return nil, err
	}
	c.SetRoot(c.RootDir)
	if err := config.EnsureRoot(c.RootDir); err != nil {
		return nil, err
	}
	if err := c.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return c, nil
}

// RootCmd is the root command of the daemon.
var RootCmd = &cobra.Command{
	Use:   "rsuchaind",
	Short: "Proof-of-Authority ledger for vehicular event reports",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if cmd.Name() == VersionCmd.Name() {
			return nil
		}
		conf, err = ParseConfig()
		if err != nil {
			return err
		}
		logger, err = newLogger(conf.LogFormat, conf.LogLevel)
		if err != nil {
			return err
		}
		if viper.GetBool(cli.TraceFlag) {
			logger = log.NewTracingLogger(logger)
		}
		logger = logger.With("module", "main")
		return nil
	},
}

func newLogger(format, level string) (log.Logger, error) {
	var l log.Logger
	if format == config.LogFormatJSON {
		l = log.NewTMJSONLogger(log.NewSyncWriter(os.Stdout))
	} else {
		l = log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	}
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(l, opt), nil
}
