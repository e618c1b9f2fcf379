package config

import (
	"fmt"
	"os"

	"market-simulator/src/helpers"
	"market-simulator/src/models"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from raw YAML, filling unset fields with defaults
func Parse(data []byte) (*Config, error) {
	modelConfig := Defaults()
	if err := yaml.Unmarshal(data, modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: modelConfig}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Defaults returns the dashboard's stock settings
func Defaults() *models.MConfig {
	return &models.MConfig{
		Name:     "market-simulator",
		Host:     "127.0.0.1",
		Port:     8000,
		LogLevel: "INFO",
		GrpcHost: "127.0.0.1",
		GrpcPort: 50051,
		Symbol:   "MON/USDC",
		Storage: models.MStorageConfig{
			Enabled: false,
			DBType:  "sqlite",
			DBPath:  "market-simulator.db",
		},
		Network: models.MNetworkConfig{
			RPCURL:         "https://testnet-rpc.monad.xyz",
			RequestTimeout: 5,
			MaxRetries:     1,
			UserAgent:      "market-simulator/1.0",
		},
		Simulator: models.MSimulatorConfig{
			OrderBook: models.MOrderBookConfig{
				MidPrice: 142.5,
				Levels:   14,
				MinSize:  5,
				TickMs:   200,
			},
			Chart: models.MChartConfig{
				Candles:    60,
				StartPrice: 142,
				TickMs:     500,
				CandleMs:   4000,
				MAFast:     7,
				MASlow:     25,
			},
			Activity: models.MActivityConfig{
				Capacity:    20,
				SeedEntries: 5,
				TickMs:      2500,
			},
			Stats: models.MStatsConfig{
				PollMs:           2000,
				FailureThreshold: 3,
				DemoRecovery:     false,
				DemoRetrySeconds: 30,
			},
		},
	}
}

// -----------------------------------------------------------------------------

// applyDefaults restores defaults that YAML explicitly zeroed
func (c *Config) applyDefaults() {
	def := Defaults()
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = def.Storage.DBType
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = def.Network.UserAgent
	}
}

// -----------------------------------------------------------------------------

// Validate performs configuration validation
func (c *Config) Validate() error {
	// Field level rules live in the struct tags
	if err := validator.New().Struct(c.MConfig); err != nil {
		return err
	}

	// Cross-field rules
	if c.GrpcPort != 0 && c.GrpcPort == c.Port && c.GrpcHost == c.Host {
		return fmt.Errorf("grpc port %d collides with http port", c.GrpcPort)
	}

	if c.Storage.Enabled {
		switch c.Storage.DBType {
		case "sqlite":
			if c.Storage.DBPath == "" {
				return fmt.Errorf("database path cannot be empty for sqlite")
			}
		case "postgres":
			if c.Storage.DBConnectionString == "" {
				return fmt.Errorf("connection string cannot be empty for postgres")
			}
		}
	}

	chart := c.Simulator.Chart
	if chart.CandleMs < chart.TickMs {
		return fmt.Errorf("candle interval (%dms) must not be shorter than the tick (%dms)", chart.CandleMs, chart.TickMs)
	}

	stats := c.Simulator.Stats
	if stats.DemoRecovery && stats.DemoRetrySeconds <= 0 {
		return fmt.Errorf("demo_retry_seconds must be greater than 0 when demo_recovery is on")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
