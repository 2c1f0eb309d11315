package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"hedera-defi/internal/fetcher"
	"hedera-defi/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. HEDERADEFI_CLIENT_API_KEY.
const EnvPrefix = "HEDERADEFI"

// Config materialises application configuration.
type Config struct {
	App        AppConfig       `mapstructure:"app"`
	Logging    logging.Config  `mapstructure:"logging"`
	Client     ClientConfig    `mapstructure:"client"`
	Mirror     SourceConfig    `mapstructure:"mirror"`
	SaucerSwap SourceConfig    `mapstructure:"saucerswap"`
	Bonzo      SourceConfig    `mapstructure:"bonzo"`
	Relay      RelayConfig     `mapstructure:"relay"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Scheduler  SchedulerConfig `mapstructure:"scheduler"`
	Alerting   AlertingConfig  `mapstructure:"alerting"`
	Export     ExportConfig    `mapstructure:"export"`
	Metrics    MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ClientConfig tunes the shared request executor.
type ClientConfig struct {
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	APIKey            string        `mapstructure:"api_key"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// SourceConfig points at one upstream API.
type SourceConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// RelayConfig covers the Hedera JSON-RPC relay.
type RelayConfig struct {
	RPCURL string `mapstructure:"rpc_url"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs snapshot cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	AlignToBucket   bool          `mapstructure:"align_to_bucket"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	SnapshotOnStart bool          `mapstructure:"snapshot_on_start"`
}

// AlertingConfig defines liquidity-shift thresholds and routing.
type AlertingConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	ThresholdPct float64        `mapstructure:"threshold_pct"`
	Cooldown     time.Duration  `mapstructure:"cooldown"`
	Retention    time.Duration  `mapstructure:"retention"`
	Channels     []string       `mapstructure:"channels"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// MetricsConfig exposes Prometheus metrics while the monitor runs. An empty
// listen address disables the endpoint.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "hederadefi")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("client.cache_ttl", "60s")
	v.SetDefault("client.request_timeout", "30s")
	v.SetDefault("client.api_key", "")
	v.SetDefault("client.retry_attempts", 1)
	v.SetDefault("client.retry_backoff", "500ms")
	v.SetDefault("client.requests_per_second", 0.0)

	v.SetDefault("mirror.base_url", fetcher.DefaultMirrorURL)
	v.SetDefault("saucerswap.base_url", fetcher.DefaultSaucerSwapURL)
	v.SetDefault("bonzo.base_url", fetcher.DefaultBonzoURL)
	v.SetDefault("relay.rpc_url", fetcher.DefaultRelayURL)

	v.SetDefault("scheduler.interval", "5m")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x68646669))
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.snapshot_on_start", true)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.threshold_pct", 10.0)
	v.SetDefault("alerting.cooldown", "1h")
	v.SetDefault("alerting.retention", "720h")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
	v.SetDefault("metrics.listen_addr", "")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Client.CacheTTL <= 0 {
		return fmt.Errorf("client.cache_ttl must be greater than zero")
	}
	if c.Client.RequestTimeout <= 0 {
		return fmt.Errorf("client.request_timeout must be greater than zero")
	}
	if c.Client.RetryAttempts < 1 {
		return fmt.Errorf("client.retry_attempts must be at least 1")
	}
	if c.Client.RequestsPerSecond < 0 {
		return fmt.Errorf("client.requests_per_second cannot be negative")
	}
	for name, src := range map[string]SourceConfig{"mirror": c.Mirror, "saucerswap": c.SaucerSwap, "bonzo": c.Bonzo} {
		if src.BaseURL == "" {
			return fmt.Errorf("%s.base_url 必须配置", name)
		}
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Alerting.Retention < 0 {
		return fmt.Errorf("alerting.retention cannot be negative")
	}
	if c.Alerting.ThresholdPct < 0 {
		return fmt.Errorf("alerting.threshold_pct cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
