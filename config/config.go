package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rsuchain/rsuchain/internal/eventsink"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"
)

// NOTE: Most of the structs & relevant comments + the default configuration
// options were used to manually generate the config.toml. Please reflect any
// changes made here in the defaultConfigTemplate constant in config/toml.go
var (
	DefaultRSUChainDir = ".rsuchain"
	defaultConfigDir   = "config"
	defaultDataDir     = "data"

	defaultConfigFileName  = "config.toml"
	defaultGenesisJSONName = "app_state.json"

	defaultConfigFilePath  = filepath.Join(defaultConfigDir, defaultConfigFileName)
	defaultGenesisJSONPath = filepath.Join(defaultConfigDir, defaultGenesisJSONName)
)

// Config defines the top level configuration of the daemon.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	ABCI            *ABCIConfig            `mapstructure:"abci"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
	EventSink       *EventSinkConfig       `mapstructure:"event_sink"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		ABCI:            DefaultABCIConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
		EventSink:       DefaultEventSinkConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		ABCI:            TestABCIConfig(),
		Instrumentation: TestInstrumentationConfig(),
		EventSink:       DefaultEventSinkConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs.
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.ABCI.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [abci] section: %w", err)
	}
	if err := cfg.EventSink.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [event_sink] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration of the daemon.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Database backend: goleveldb | cleveldb | boltdb | rocksdb | badgerdb | memdb
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Output level for logging: debug | info | error
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log_format"`

	// Path to the JSON file holding the application genesis state
	Genesis string `mapstructure:"genesis_file"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
		LogLevel:  DefaultLogLevel,
		LogFormat: LogFormatPlain,
		Genesis:   defaultGenesisJSONPath,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	return cfg
}

// GenesisFile returns the full path to the genesis app state file.
func (cfg BaseConfig) GenesisFile() string {
	return rootify(cfg.Genesis, cfg.RootDir)
}

// DBDir returns the full path to the database directory.
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain' or 'json')")
	}
	switch cfg.LogLevel {
	case "debug", "info", "error", "none":
	default:
		return fmt.Errorf("unknown log_level %q (must be 'debug', 'info', 'error' or 'none')", cfg.LogLevel)
	}
	if cfg.DBBackend == "" {
		return errors.New("db_backend can't be empty")
	}
	return nil
}

// DefaultLogLevel is the log level of a fresh configuration.
const DefaultLogLevel = "info"

//-----------------------------------------------------------------------------
// ABCIConfig

// ABCIConfig defines how Tendermint reaches the application.
type ABCIConfig struct {
	// TCP or UNIX socket address the ABCI server listens on
	ListenAddress string `mapstructure:"laddr"`

	// Mechanism to connect to the ABCI application: socket | grpc
	Transport string `mapstructure:"transport"`
}

// DefaultABCIConfig returns a default ABCI configuration.
func DefaultABCIConfig() *ABCIConfig {
	return &ABCIConfig{
		ListenAddress: "tcp://127.0.0.1:26658",
		Transport:     "socket",
	}
}

// TestABCIConfig returns an ABCI configuration for testing.
func TestABCIConfig() *ABCIConfig {
	cfg := DefaultABCIConfig()
	cfg.ListenAddress = "tcp://127.0.0.1:36658"
	return cfg
}

// ValidateBasic performs basic validation.
func (cfg *ABCIConfig) ValidateBasic() error {
	if cfg.ListenAddress == "" {
		return errors.New("laddr can't be empty")
	}
	switch cfg.Transport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("unknown transport %q (must be 'socket' or 'grpc')", cfg.Transport)
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26661",
		Namespace:            "rsuchain",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

//-----------------------------------------------------------------------------
// EventSinkConfig

// EventSinkConfig selects where committed adjudications are exported.
type EventSinkConfig struct {
	// null | psql
	Type string `mapstructure:"type"`

	// PostgreSQL connection string, required when type = "psql"
	PsqlConn string `mapstructure:"psql_conn"`

	// Chain id recorded with every exported row
	ChainID string `mapstructure:"chain_id"`

	// Upper bound on one export. Adjudications that miss it are retried with
	// the next block.
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultEventSinkConfig returns a configuration that exports nothing.
func DefaultEventSinkConfig() *EventSinkConfig {
	return &EventSinkConfig{
		Type:    string(eventsink.NULL),
		Timeout: 5 * time.Second,
	}
}

// ValidateBasic performs basic validation.
func (cfg *EventSinkConfig) ValidateBasic() error {
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	switch eventsink.Type(cfg.Type) {
	case eventsink.NULL:
	case eventsink.PSQL:
		if cfg.PsqlConn == "" {
			return errors.New("the psql connection settings cannot be empty")
		}
	default:
		return fmt.Errorf("unsupported event sink type %q", cfg.Type)
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
