package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name" json:"name" validate:"required"`
	Host      string           `yaml:"host" json:"host" validate:"required"`
	Port      int              `yaml:"port" json:"port" validate:"gt=1024,lte=65535"`
	LogLevel  string           `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=DEBUG INFO WARNING ERROR"`
	GrpcHost  string           `yaml:"grpc_host" json:"grpc_host"`
	GrpcPort  int              `yaml:"grpc_port" json:"grpc_port" validate:"omitempty,gt=1024,lte=65535"`
	Symbol    string           `yaml:"symbol" json:"symbol" validate:"required"`
	Storage   MStorageConfig   `yaml:"storage" json:"storage"`
	Network   MNetworkConfig   `yaml:"network" json:"network"`
	Simulator MSimulatorConfig `yaml:"simulator" json:"simulator"`
}

type MStorageConfig struct {
	Enabled            bool   `yaml:"enabled" json:"enabled"`
	DBType             string `yaml:"db_type" json:"db_type" validate:"omitempty,oneof=sqlite postgres"`
	DBPath             string `yaml:"db_path" json:"db_path"`
	DBConnectionString string `yaml:"db_connection_string" json:"db_connection_string"`
}

type MNetworkConfig struct {
	RPCURL         string   `yaml:"rpc_url" json:"rpc_url" validate:"required,url"`
	RequestTimeout int      `yaml:"timeout" json:"timeout" validate:"gt=0"` // seconds
	MaxRetries     int      `yaml:"retries" json:"retries" validate:"gte=0"`
	Proxies        []string `yaml:"proxies" json:"proxies"`
	UserAgent      string   `yaml:"user_agent" json:"user_agent"`
}

// -----------------------------------------------------------------------------
// Simulator settings. Durations are in milliseconds unless stated otherwise.
// -----------------------------------------------------------------------------

type MSimulatorConfig struct {
	Seed      int64            `yaml:"seed" json:"seed"` // 0 = seeded from wall clock
	OrderBook MOrderBookConfig `yaml:"order_book" json:"order_book"`
	Chart     MChartConfig     `yaml:"chart" json:"chart"`
	Activity  MActivityConfig  `yaml:"activity" json:"activity"`
	Stats     MStatsConfig     `yaml:"stats" json:"stats"`
}

type MOrderBookConfig struct {
	MidPrice float64 `yaml:"mid_price" json:"mid_price" validate:"gt=0"`
	Levels   int     `yaml:"levels" json:"levels" validate:"gt=0,lte=200"`
	MinSize  float64 `yaml:"min_size" json:"min_size" validate:"gt=0"`
	TickMs   int     `yaml:"tick_ms" json:"tick_ms" validate:"gt=0"`
}

type MChartConfig struct {
	Candles    int     `yaml:"candles" json:"candles" validate:"gt=1,lte=1000"`
	StartPrice float64 `yaml:"start_price" json:"start_price" validate:"gt=0"`
	TickMs     int     `yaml:"tick_ms" json:"tick_ms" validate:"gt=0"`
	CandleMs   int     `yaml:"candle_ms" json:"candle_ms" validate:"gt=0"`
	MAFast     int     `yaml:"ma_fast" json:"ma_fast" validate:"gt=0"`
	MASlow     int     `yaml:"ma_slow" json:"ma_slow" validate:"gt=0"`
}

type MActivityConfig struct {
	Capacity    int `yaml:"capacity" json:"capacity" validate:"gt=0"`
	SeedEntries int `yaml:"seed_entries" json:"seed_entries" validate:"gte=0"`
	TickMs      int `yaml:"tick_ms" json:"tick_ms" validate:"gt=0"`
}

type MStatsConfig struct {
	PollMs           int  `yaml:"poll_ms" json:"poll_ms" validate:"gt=0"`
	FailureThreshold int  `yaml:"failure_threshold" json:"failure_threshold" validate:"gt=0"`
	DemoRecovery     bool `yaml:"demo_recovery" json:"demo_recovery"`
	DemoRetrySeconds int  `yaml:"demo_retry_seconds" json:"demo_retry_seconds" validate:"gte=0"`
}
