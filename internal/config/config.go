package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Scan         ScanConfig         `mapstructure:"scan"`
	SafeBrowsing SafeBrowsingConfig `mapstructure:"safebrowsing"`
	Model        ModelConfig        `mapstructure:"model"`
	RefData      RefDataConfig      `mapstructure:"refdata"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TLS       bool   `mapstructure:"tls"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// ScanConfig tunes the risk pipeline. MaxRedirects is the threshold above
// which the redirect probe reports MEDIUM; DomainAgeDays is the minimum
// domain age below which the age probe reports MEDIUM.
type ScanConfig struct {
	MaxRedirects  int           `mapstructure:"max_redirects"`
	DomainAgeDays int           `mapstructure:"domain_age_days"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
	ScanBudget    time.Duration `mapstructure:"scan_budget"`
	UserAgent     string        `mapstructure:"user_agent"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
	BlocklistTTL  time.Duration `mapstructure:"blocklist_ttl"`
	WhoisTTL      time.Duration `mapstructure:"whois_ttl"`
}

type SafeBrowsingConfig struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

type ModelConfig struct {
	ArtifactPath string `mapstructure:"artifact_path"`
}

type RefDataConfig struct {
	LegitDomainsURL string        `mapstructure:"legit_domains_url"`
	PhishingFeedURL string        `mapstructure:"phishing_feed_url"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/phishscan")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("PHISHSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("redis.enabled", "PHISHSCAN_REDIS_ENABLED")
	v.BindEnv("redis.tls", "PHISHSCAN_REDIS_TLS")
	v.BindEnv("redis.host", "PHISHSCAN_REDIS_HOST")
	v.BindEnv("redis.port", "PHISHSCAN_REDIS_PORT")
	v.BindEnv("redis.password", "PHISHSCAN_REDIS_PASSWORD")
	v.BindEnv("database.host", "PHISHSCAN_DATABASE_HOST")
	v.BindEnv("database.port", "PHISHSCAN_DATABASE_PORT")
	v.BindEnv("database.user", "PHISHSCAN_DATABASE_USER")
	v.BindEnv("database.password", "PHISHSCAN_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "PHISHSCAN_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "PHISHSCAN_DATABASE_SSLMODE")
	v.BindEnv("safebrowsing.api_key", "PHISHSCAN_SAFEBROWSING_API_KEY")
	v.BindEnv("model.artifact_path", "PHISHSCAN_MODEL_ARTIFACT_PATH")
	v.BindEnv("scan.max_redirects", "PHISHSCAN_SCAN_MAX_REDIRECTS")
	v.BindEnv("scan.domain_age_days", "PHISHSCAN_SCAN_DOMAIN_AGE_DAYS")
	v.BindEnv("app.environment", "PHISHSCAN_APP_ENVIRONMENT")

	// Config file is optional; env vars and defaults cover a bare deployment
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "phishscan")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "phishscan")
	v.SetDefault("database.dbname", "phishscan")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "phishscan")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_minute", 60)
	v.SetDefault("ratelimit.requests_per_hour", 1000)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("scan.max_redirects", 3)
	v.SetDefault("scan.domain_age_days", 30)
	v.SetDefault("scan.fetch_timeout", 15*time.Second)
	v.SetDefault("scan.probe_timeout", 10*time.Second)
	v.SetDefault("scan.scan_budget", 25*time.Second)
	v.SetDefault("scan.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("scan.max_body_bytes", int64(2<<20))
	v.SetDefault("scan.blocklist_ttl", 10*time.Minute)
	v.SetDefault("scan.whois_ttl", 6*time.Hour)

	v.SetDefault("safebrowsing.api_url", "https://safebrowsing.googleapis.com/v4/threatMatches:find")

	// Expects one domain per line or a rank,domain CSV; empty means the
	// built-in fallback set.
	v.SetDefault("refdata.legit_domains_url", "")
	v.SetDefault("refdata.phishing_feed_url", "https://openphish.com/feed.txt")
	v.SetDefault("refdata.fetch_timeout", 10*time.Second)
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}
