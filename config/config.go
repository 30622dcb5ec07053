package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the studypath service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Databases DatabasesConfig `mapstructure:"databases"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Listen    string `mapstructure:"listen"`
	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"log_level"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ProvidersConfig contains external completion-service settings
type ProvidersConfig struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig configures the generative-language API client
type GeminiConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (g GeminiConfig) Validate() error {
	if strings.TrimSpace(g.APIKey) == "" {
		return fmt.Errorf("providers.gemini.api_key required (STUDYPATH_PROVIDERS_GEMINI_API_KEY)")
	}
	if strings.TrimSpace(g.Model) == "" {
		return fmt.Errorf("providers.gemini.model required")
	}
	return nil
}

// DatabasesConfig groups storage backends
type DatabasesConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("databases.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("databases.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds the connection string, preferring an explicit url.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings. Redis is optional: when no
// host is set the plan cache is disabled.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

// JobsConfig bounds the syllabus pipeline
type JobsConfig struct {
	MinInputChars int           `mapstructure:"min_input_chars"`
	Watchdog      time.Duration `mapstructure:"watchdog"`
	Retention     time.Duration `mapstructure:"retention"`
}

func (j JobsConfig) Validate() error {
	if j.Watchdog <= 0 {
		return fmt.Errorf("jobs.watchdog must be positive")
	}
	if j.Retention < j.Watchdog {
		return fmt.Errorf("jobs.retention must be at least jobs.watchdog")
	}
	return nil
}

// LoadConfig loads config from file with STUDYPATH_* env overrides
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.listen", ":8080")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("providers.gemini.model", "gemini-1.5-flash-latest")
	viper.SetDefault("providers.gemini.endpoint", "https://generativelanguage.googleapis.com")
	viper.SetDefault("providers.gemini.timeout", 25*time.Second)
	viper.SetDefault("jobs.min_input_chars", 100)
	viper.SetDefault("jobs.watchdog", 30*time.Second)
	viper.SetDefault("jobs.retention", 5*time.Minute)

	// keys without defaults must still be registered for env-only setups
	for _, key := range []string{
		"general.jwt_secret",
		"providers.gemini.api_key",
		"databases.postgres.url",
		"databases.postgres.host",
		"databases.postgres.port",
		"databases.postgres.user",
		"databases.postgres.password",
		"databases.postgres.dbname",
		"databases.postgres.sslmode",
		"databases.redis.host",
		"databases.redis.port",
		"databases.redis.password",
	} {
		viper.SetDefault(key, "")
	}
	viper.SetDefault("databases.redis.db", 0)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("STUDYPATH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// a config file is optional; env vars and defaults can carry the full setup
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Databases.Postgres.Validate(); err != nil {
		panic(err)
	}
	if err := config.Jobs.Validate(); err != nil {
		panic(err)
	}
	return &config
}
