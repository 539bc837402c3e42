package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"SignalScan/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultUniverse is the Nifty 50 constituent list scanned when no symbols are configured.
var DefaultUniverse = []string{
	"RELIANCE", "INFY", "TCS", "HDFCBANK", "SBIN", "ICICIBANK", "ITC", "LT",
	"KOTAKBANK", "HINDUNILVR", "AXISBANK", "BHARTIARTL", "HCLTECH", "ASIANPAINT",
	"MARUTI", "BAJFINANCE", "WIPRO", "HINDALCO", "NTPC", "TECHM", "TITAN",
	"COALINDIA", "TATASTEEL", "ONGC", "SUNPHARMA", "POWERGRID", "GRASIM",
	"ULTRACEMCO", "DRREDDY", "CIPLA", "ADANIENT", "DIVISLAB", "BAJAJFINSV",
	"HEROMOTOCO", "EICHERMOT", "UPL", "BPCL", "JSWSTEEL", "SHREECEM",
	"SBILIFE", "INDUSINDBK", "APOLLOHOSP", "HDFCLIFE", "BRITANNIA",
	"NESTLEIND", "BAJAJ-AUTO", "TATAMOTORS", "M&M", "ICICIPRULI", "DLF",
}

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Timezone    string `yaml:"timezone" default:"UTC" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Scan struct {
		Interval      time.Duration `yaml:"interval" default:"5m" validate:"gt=0"`
		Workers       int           `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
		SymbolTimeout time.Duration `yaml:"symbol_timeout" default:"30s" validate:"gt=0"`
		Symbols       []string      `yaml:"symbols" validate:"dive,required"`
	} `yaml:"scan"`
	Dedup struct {
		Window time.Duration `yaml:"window" default:"600s" validate:"gt=0"`
	} `yaml:"dedup"`
	MarketData struct {
		Provider     string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo polygon"`
		Lookback     time.Duration `yaml:"lookback" default:"4320h" validate:"gt=0"`
		Interval     string        `yaml:"interval" default:"1d" validate:"oneof=1d 1wk"`
		SymbolSuffix string        `yaml:"symbol_suffix" default:".NS"`
		Timeout      time.Duration `yaml:"timeout" default:"15s"`
		Yahoo        struct {
			BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		} `yaml:"yahoo"`
		Polygon struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"polygon"`
		RateLimit struct {
			Capacity     float64 `yaml:"capacity" default:"5" validate:"gte=1"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"2" validate:"gt=0"`
		} `yaml:"rate_limit"`
		Cache struct {
			Backend string        `yaml:"backend" default:"memory" validate:"oneof=none memory redis"`
			TTL     time.Duration `yaml:"ttl" default:"4m" validate:"gt=0"`
		} `yaml:"cache"`
	} `yaml:"market_data"`
	Store struct {
		Backend  string        `yaml:"backend" default:"redis" validate:"oneof=redis firebase clickhouse"`
		Timeout  time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
		Firebase struct {
			DatabaseURL string `yaml:"database_url"`
			AuthToken   string `yaml:"auth_token"`
		} `yaml:"firebase"`
	} `yaml:"store"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"signalscan"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"signalscan"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"signals"`
		RequiredAcks *int          `yaml:"required_acks" validate:"omitempty,oneof=-1 0 1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
}

var validate = validator.New()

// Default returns a config with every default applied and no file read.
func Default() (*Config, error) {
	var c Config
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse builds a config from YAML bytes.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) finish() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if c.Kafka.RequiredAcks == nil {
		all := -1
		c.Kafka.RequiredAcks = &all
	}
	c.Scan.Symbols = util.NormalizeSymbols(c.Scan.Symbols)
	if len(c.Scan.Symbols) == 0 {
		c.Scan.Symbols = append([]string(nil), DefaultUniverse...)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// LoadWithEnv loads .env (if present), then the YAML file, then applies
// environment variable overrides. A missing config file falls back to defaults.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		c, err = Default()
	}
	if err != nil {
		return nil, err
	}

	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("SYMBOLS"); v != "" {
		c.Scan.Symbols = util.NormalizeSymbols(splitList(v))
	}
	if v := getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("FIREBASE_DB_URL"); v != "" {
		c.Store.Firebase.DatabaseURL = v
	}
	if v := getenv("FIREBASE_AUTH_TOKEN"); v != "" {
		c.Store.Firebase.AuthToken = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	c.Redis.Port = util.ParseIntDefault(getenv("REDIS_PORT"), c.Redis.Port)
	c.Redis.DB = util.ParseIntDefault(getenv("REDIS_DB"), c.Redis.DB)
	c.Server.Port = util.ParseIntDefault(getenv("HTTP_PORT"), c.Server.Port)
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("POLYGON_API_KEY"); v != "" {
		c.MarketData.Polygon.APIKey = v
	}
	if v := getenv("MARKET_DATA_PROVIDER"); v != "" {
		c.MarketData.Provider = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("TZ_NAME"); v != "" {
		c.Timezone = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.Store.Backend == "firebase" && c.Store.Firebase.DatabaseURL == "" {
		return fmt.Errorf("store.firebase.database_url is required for the firebase backend")
	}
	if c.MarketData.Provider == "polygon" && c.MarketData.Polygon.APIKey == "" {
		return fmt.Errorf("market_data.polygon.api_key is required for the polygon provider")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// KafkaAcks returns kafka.required_acks; -1 waits for all in-sync replicas.
func (c *Config) KafkaAcks() int {
	if c.Kafka.RequiredAcks == nil {
		return -1
	}
	return *c.Kafka.RequiredAcks
}

// Location returns the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
