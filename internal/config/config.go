package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/phenrril/catering/internal/domain"
)

type Config struct {
	Env      string         `mapstructure:"app_env"`
	Port     string         `mapstructure:"port"`
	LogLevel string         `mapstructure:"log_level"`
	SiteName string         `mapstructure:"site_name"`
	BaseURL  string         `mapstructure:"base_url"`
	Database DatabaseConfig `mapstructure:"db"`
	Session  SessionConfig  `mapstructure:"session"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Google   GoogleConfig   `mapstructure:"google"`

	DefaultPageSize int `mapstructure:"default_page_size"`
}

type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type SMTPConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Pass          string `mapstructure:"pass"`
	FromName      string `mapstructure:"from_name"`
	AllowedDomain string `mapstructure:"allowed_domain"`
}

type NotifyConfig struct {
	SelfOnly bool `mapstructure:"self_only"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// Load reads .env, an optional config.yaml and the environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if !domain.ValidPageSize(cfg.DefaultPageSize) {
		cfg.DefaultPageSize = domain.DefaultPageSize
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("site_name", "Catering")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "catering")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("session.secret", "dev-insecure")
	v.SetDefault("session.ttl", 8*time.Hour)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from_name", "Catering")
	v.SetDefault("notify.self_only", true)
	v.SetDefault("default_page_size", domain.DefaultPageSize)
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("app_env", "APP_ENV")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("site_name", "SITE_NAME")
	_ = v.BindEnv("base_url", "BASE_URL")
	_ = v.BindEnv("default_page_size", "DEFAULT_PAGE_SIZE")

	_ = v.BindEnv("db.dsn", "DB_DSN")
	_ = v.BindEnv("db.host", "DB_HOST")
	_ = v.BindEnv("db.port", "DB_PORT")
	_ = v.BindEnv("db.user", "DB_USER", "POSTGRES_USER")
	_ = v.BindEnv("db.password", "DB_PASSWORD", "POSTGRES_PASSWORD")
	_ = v.BindEnv("db.name", "DB_NAME", "POSTGRES_DB")
	_ = v.BindEnv("db.sslmode", "DB_SSLMODE")

	_ = v.BindEnv("session.secret", "SESSION_SECRET")
	_ = v.BindEnv("session.ttl", "SESSION_TTL")

	_ = v.BindEnv("smtp.host", "SMTP_HOST")
	_ = v.BindEnv("smtp.port", "SMTP_PORT")
	_ = v.BindEnv("smtp.user", "SMTP_USER")
	_ = v.BindEnv("smtp.pass", "SMTP_PASS")
	_ = v.BindEnv("smtp.from_name", "SMTP_FROM_NAME")
	_ = v.BindEnv("smtp.allowed_domain", "MAIL_ALLOWED_DOMAIN")
	_ = v.BindEnv("notify.self_only", "NOTIFY_SELF_ONLY")

	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")

	_ = v.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
}

func (c *Config) IsDev() bool {
	e := strings.ToLower(c.Env)
	return e == "" || e == "development" || e == "dev"
}

// DSNString returns DB_DSN when set, otherwise one built from the parts.
func (d DatabaseConfig) DSNString() string {
	if strings.TrimSpace(d.DSN) != "" {
		return d.DSN
	}
	return "host=" + d.Host + " user=" + d.User + " password=" + d.Password +
		" dbname=" + d.Name + " port=" + d.Port + " sslmode=" + d.SSLMode
}

func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Port != 0 && s.User != "" && s.Pass != ""
}
