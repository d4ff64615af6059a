package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maltedev/amazon-search-ranker/internal/browser"
	"github.com/maltedev/amazon-search-ranker/internal/database"
	"github.com/maltedev/amazon-search-ranker/internal/ranking"
	"github.com/spf13/viper"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Locale   LocaleConfig   `mapstructure:"locale"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	QueueSize       int           `mapstructure:"queue_size"`
}

type ScraperConfig struct {
	Region       string        `mapstructure:"region"`
	MaxPages     int           `mapstructure:"max_pages"`
	RateLimitMin time.Duration `mapstructure:"rate_limit_min"`
	RateLimitMax time.Duration `mapstructure:"rate_limit_max"`
	Adaptive     bool          `mapstructure:"adaptive"`
}

type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	UserAgent      string        `mapstructure:"user_agent"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	TimezoneID     string        `mapstructure:"timezone"`
	Locale         string        `mapstructure:"locale"`
	ProxyServer    string        `mapstructure:"proxy"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	// Stream receives search-completed events. Empty disables publishing.
	Stream string `mapstructure:"stream"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type LocaleConfig struct {
	// File is an optional YAML table replacing the built-in conventions.
	File string `mapstructure:"file"`
}

type RankingConfig struct {
	Weights ranking.Weights `mapstructure:"weights"`
	Order   string          `mapstructure:"order"`
}

// Load reads defaults, an optional config.yaml and RANKER_* environment
// variables, in increasing priority. configFile overrides the search path.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("RANKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.queue_size", 16)

	v.SetDefault("scraper.region", "es")
	v.SetDefault("scraper.max_pages", 20)
	v.SetDefault("scraper.rate_limit_min", "2s")
	v.SetDefault("scraper.rate_limit_max", "5s")
	v.SetDefault("scraper.adaptive", true)

	defaults := browser.DefaultOptions()
	v.SetDefault("browser.headless", defaults.Headless)
	v.SetDefault("browser.timeout", defaults.Timeout.String())
	v.SetDefault("browser.max_retries", defaults.MaxRetries)
	v.SetDefault("browser.user_agent", defaults.UserAgent)
	v.SetDefault("browser.viewport_width", defaults.ViewportWidth)
	v.SetDefault("browser.viewport_height", defaults.ViewportHeight)
	v.SetDefault("browser.accept_language", defaults.AcceptLanguage)
	v.SetDefault("browser.timezone", defaults.TimezoneID)
	v.SetDefault("browser.locale", defaults.Locale)
	v.SetDefault("browser.proxy", "")

	v.SetDefault("storage.backend", StorageFile)
	v.SetDefault("storage.dir", "results")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "amazon_ranker")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 5)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ranker:results:")
	v.SetDefault("redis.ttl", "0s")
	v.SetDefault("redis.stream", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("locale.file", "")

	w := ranking.DefaultWeights()
	v.SetDefault("ranking.weights.popularity", w.Popularity)
	v.SetDefault("ranking.weights.price", w.Price)
	v.SetDefault("ranking.weights.discount", w.Discount)
	v.SetDefault("ranking.order", string(ranking.Descending))
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.QueueSize < 1 {
		return fmt.Errorf("server.queue_size must be at least 1")
	}

	if c.Scraper.Region == "" {
		return fmt.Errorf("scraper.region is required")
	}

	if c.Scraper.MaxPages < 0 {
		return fmt.Errorf("scraper.max_pages cannot be negative")
	}

	if c.Scraper.RateLimitMin > c.Scraper.RateLimitMax {
		return fmt.Errorf("scraper.rate_limit_min cannot be greater than scraper.rate_limit_max")
	}

	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the file backend")
		}
	case StoragePostgres, StorageRedis:
	default:
		return fmt.Errorf("storage.backend must be one of file, postgres, redis; got %q", c.Storage.Backend)
	}

	if c.Storage.Backend == StorageRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when storage.backend is redis")
	}

	if err := c.Ranking.Weights.Validate(); err != nil {
		return err
	}

	if _, err := ranking.ParseOrder(c.Ranking.Order); err != nil {
		return err
	}

	return nil
}

func (c *Config) BrowserOptions() *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = c.Browser.Headless
	opts.Timeout = c.Browser.Timeout
	opts.MaxRetries = c.Browser.MaxRetries
	opts.UserAgent = c.Browser.UserAgent
	opts.ViewportWidth = c.Browser.ViewportWidth
	opts.ViewportHeight = c.Browser.ViewportHeight
	opts.AcceptLanguage = c.Browser.AcceptLanguage
	opts.TimezoneID = c.Browser.TimezoneID
	opts.Locale = c.Browser.Locale
	opts.ProxyServer = c.Browser.ProxyServer
	return opts
}

func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.Name,
		SSLMode:  c.Database.SSLMode,
		MaxConns: c.Database.MaxConns,
	}
}

// Order returns the validated default ranking order.
func (c *Config) Order() ranking.Order {
	order, _ := ranking.ParseOrder(c.Ranking.Order)
	return order
}
