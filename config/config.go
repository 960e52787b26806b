package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/thewisemo/al-eairy-ota/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Run       RunConfig       `mapstructure:"run"`
	Query     QueryConfig     `mapstructure:"query"`
	Brand     BrandConfig     `mapstructure:"brand"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Report    ReportConfig    `mapstructure:"report"`
	MCP       MCPConfig       `mapstructure:"mcp"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// RunConfig shapes one aggregation run.
type RunConfig struct {
	CitiesFile     string   `mapstructure:"cities_file"`
	Seed           string   `mapstructure:"seed"`
	Providers      []string `mapstructure:"providers"`
	MaxPerProvider int      `mapstructure:"max_per_provider"`
	MaxUnitRows    int      `mapstructure:"max_unit_rows"`
	SkipUnits      bool     `mapstructure:"skip_units"`
	// StayOffsetDays is the gap between the run date and check-in.
	StayOffsetDays int    `mapstructure:"stay_offset_days"`
	StayNights     int    `mapstructure:"stay_nights"`
	Timezone       string `mapstructure:"timezone"`
}

// QueryConfig controls query expansion and the per-candidate retry policy.
type QueryConfig struct {
	SynonymsFile string              `mapstructure:"synonyms_file"`
	LangOrder    []string            `mapstructure:"lang_order"`
	Suffixes     map[string][]string `mapstructure:"suffixes"`
	Attempts     int                 `mapstructure:"attempts"`
	Timeout      time.Duration       `mapstructure:"timeout"`
	Backoff      time.Duration       `mapstructure:"backoff"`
}

// BrandConfig identifies the tracked brand.
type BrandConfig struct {
	Name     string              `mapstructure:"name"`
	Patterns []string            `mapstructure:"patterns"`
	Queries  map[string][]string `mapstructure:"queries"`
}

type BrowserConfig struct {
	// Strategies are fetch strategies in fallback order: static, headless.
	Strategies    []string      `mapstructure:"strategies"`
	Bin           string        `mapstructure:"bin"`
	ControlURL    string        `mapstructure:"control_url"`
	Headless      bool          `mapstructure:"headless"`
	NavTimeout    time.Duration `mapstructure:"nav_timeout"`
	Scroll        bool          `mapstructure:"scroll"`
	UserAgent     string        `mapstructure:"user_agent"`
	DelayProfile  string        `mapstructure:"delay_profile"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	RateBurst     int           `mapstructure:"rate_burst"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	Proxy         ProxyConfig   `mapstructure:"proxy"`
}

type ProxyConfig struct {
	Mode     string `mapstructure:"mode"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Country  string `mapstructure:"country"`
	Sticky   bool   `mapstructure:"sticky"`
}

type StoreConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
	Latest string `mapstructure:"latest"`
}

// DatabaseConfig enables the Postgres mirror when DSN is set.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int           `mapstructure:"max_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (d DatabaseConfig) Enabled() bool { return d.DSN != "" }

// ReportConfig drives the report command.
type ReportConfig struct {
	// Source is an http(s) URL or a file path; empty reads the local latest snapshot.
	Source          string         `mapstructure:"source"`
	OutDir          string         `mapstructure:"out_dir"`
	OnlyBrandCities bool           `mapstructure:"only_brand_cities"`
	Timeout         time.Duration  `mapstructure:"timeout"`
	Telegram        TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

type MCPConfig struct {
	Port   string `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// SchedulerConfig governs daemon cadence. Ticks fall on Interval boundaries shifted by Offset.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	Offset          time.Duration `mapstructure:"offset"`
	AlignToStart    bool          `mapstructure:"align_to_start"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	RunOnStart      bool          `mapstructure:"run_on_start"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
	ReportAfterRun  bool          `mapstructure:"report_after_run"`
}

// Load reads .env, the optional YAML file at path (or ./config.yaml) and OTA_*
// environment variables, in increasing precedence over the defaults.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("OTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindLegacyEnv(v)

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
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "otascan")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("run.cities_file", "cities.txt")
	v.SetDefault("run.seed", "")
	v.SetDefault("run.providers", []string{"Booking", "Agoda", "Expedia"})
	v.SetDefault("run.max_per_provider", 15)
	v.SetDefault("run.max_unit_rows", 20)
	v.SetDefault("run.skip_units", false)
	v.SetDefault("run.stay_offset_days", 1)
	v.SetDefault("run.stay_nights", 1)
	v.SetDefault("run.timezone", "Asia/Riyadh")

	v.SetDefault("query.synonyms_file", "")
	v.SetDefault("query.lang_order", []string{"en", "ar"})
	v.SetDefault("query.suffixes", map[string][]string{
		"en": {"hotel apartments"},
		"ar": {"شقق فندقية"},
	})
	v.SetDefault("query.attempts", 2)
	v.SetDefault("query.timeout", "35s")
	v.SetDefault("query.backoff", "2s")

	v.SetDefault("brand.name", "Al Eairy")
	v.SetDefault("brand.queries", map[string][]string{
		"en": {"Al Eairy"},
		"ar": {"العييري"},
	})

	v.SetDefault("browser.strategies", []string{"headless"})
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.control_url", "")
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout", "35s")
	v.SetDefault("browser.scroll", true)
	v.SetDefault("browser.delay_profile", "normal")
	v.SetDefault("browser.rate_per_second", 0.5)
	v.SetDefault("browser.rate_burst", 1)
	v.SetDefault("browser.respect_robots", true)
	v.SetDefault("browser.proxy.mode", "direct")
	v.SetDefault("browser.proxy.url", "")
	v.SetDefault("browser.proxy.country", "sa")
	v.SetDefault("browser.proxy.sticky", true)

	v.SetDefault("store.dir", "data")
	v.SetDefault("store.prefix", "al-eairy-ota")
	v.SetDefault("store.latest", "latest.json")

	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("report.source", "")
	v.SetDefault("report.out_dir", "report")
	v.SetDefault("report.only_brand_cities", true)
	v.SetDefault("report.timeout", "30s")
	v.SetDefault("report.telegram.enabled", false)
	v.SetDefault("report.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("mcp.port", "8080")
	v.SetDefault("mcp.api_key", "")

	v.SetDefault("scheduler.interval", "24h")
	v.SetDefault("scheduler.offset", "0s")
	v.SetDefault("scheduler.align_to_start", true)
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.run_on_start", false)
	v.SetDefault("scheduler.advisory_lock_key", int64(0x4f544131))
	v.SetDefault("scheduler.report_after_run", true)
}

// bindLegacyEnv keeps the unprefixed variable names deployments already export.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("browser.proxy.username", "OTA_BROWSER_PROXY_USERNAME", "DECODO_USERNAME")
	_ = v.BindEnv("browser.proxy.password", "OTA_BROWSER_PROXY_PASSWORD", "DECODO_PASSWORD")
	_ = v.BindEnv("browser.bin", "OTA_BROWSER_BIN", "ROD_BROWSER_BIN")
	_ = v.BindEnv("database.dsn", "OTA_DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("mcp.port", "OTA_MCP_PORT", "PORT")
	_ = v.BindEnv("report.telegram.bot_token", "OTA_REPORT_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("report.telegram.chat_id", "OTA_REPORT_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
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

// Validate performs sanity checks on the configuration values.
func (c *Config) Validate() error {
	if len(c.Run.Providers) == 0 {
		return fmt.Errorf("run.providers must list at least one provider")
	}
	if c.Run.MaxPerProvider <= 0 {
		return fmt.Errorf("run.max_per_provider must be greater than zero")
	}
	if c.Run.StayOffsetDays < 0 || c.Run.StayNights <= 0 {
		return fmt.Errorf("run.stay_offset_days must be >= 0 and run.stay_nights > 0")
	}
	if _, err := time.LoadLocation(c.Run.Timezone); err != nil {
		return fmt.Errorf("run.timezone: %w", err)
	}
	for _, l := range c.Query.LangOrder {
		if l != "en" && l != "ar" {
			return fmt.Errorf("query.lang_order: unsupported language %q", l)
		}
	}
	if c.Query.Attempts <= 0 {
		return fmt.Errorf("query.attempts must be greater than zero")
	}
	if len(c.Browser.Strategies) == 0 {
		return fmt.Errorf("browser.strategies must list at least one strategy")
	}
	for _, s := range c.Browser.Strategies {
		if s != "static" && s != "headless" {
			return fmt.Errorf("browser.strategies: unknown strategy %q", s)
		}
	}
	if c.Browser.RatePerSecond <= 0 {
		return fmt.Errorf("browser.rate_per_second must be greater than zero")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Report.Telegram.Enabled {
		if c.Report.Telegram.BotToken == "" {
			return fmt.Errorf("report.telegram.bot_token is required when telegram is enabled")
		}
		if c.Report.Telegram.ChatID == "" {
			return fmt.Errorf("report.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// Location returns the run timezone; Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Run.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
