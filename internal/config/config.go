// Package config loads sfl settings from defaults, an optional YAML file,
// a .env file and SFL_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SFL"

type Config struct {
	Addr     string         `mapstructure:"addr" yaml:"addr"`
	DBPath   string         `mapstructure:"db_path" yaml:"db_path"`
	APIKey   string         `mapstructure:"api_key" yaml:"api_key"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	CORS     CORSConfig     `mapstructure:"cors" yaml:"cors"`
	Blob     BlobConfig     `mapstructure:"blob" yaml:"blob"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Enrich   EnrichConfig   `mapstructure:"enrich" yaml:"enrich"`
	Fetch    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Otel     OtelConfig     `mapstructure:"otel" yaml:"otel"`
	Shutdown ShutdownConfig `mapstructure:"shutdown" yaml:"shutdown"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins" yaml:"origins"`
}

type BlobConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Dir         string `mapstructure:"dir" yaml:"dir"`
	RedisAddr   string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	GCSBucket   string `mapstructure:"gcs_bucket" yaml:"gcs_bucket"`
}

type LLMConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" yaml:"model"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

type EnrichConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
}

type OtelConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure"`
}

type ShutdownConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DataDir is where sfl keeps its database and blobs by default.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sfl"
	}
	return filepath.Join(home, ".sfl")
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers may bind command-line flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	dir := DataDir()

	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", filepath.Join(dir, "sfl.db"))
	v.SetDefault("api_key", "")
	v.SetDefault("log.mode", "dev")
	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("blob.backend", "fs")
	v.SetDefault("blob.dir", filepath.Join(dir, "blobs"))
	v.SetDefault("blob.redis_addr", "localhost:6379")
	v.SetDefault("blob.redis_prefix", "sfl:")
	v.SetDefault("blob.gcs_bucket", "")
	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("enrich.enabled", true)
	v.SetDefault("enrich.timeout", time.Duration(0))
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_bytes", int64(5*1024*1024))
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.exporter", "stdout")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.insecure", false)
	v.SetDefault("shutdown.timeout", 15*time.Second)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Provider keys are also picked up under their usual names.
	_ = v.BindEnv("llm.api_key", "SFL_LLM_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY")

	return v
}

// Load reads .env (if present) and the optional YAML file, then decodes
// everything into a Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Blob.Backend {
	case "fs", "memory", "redis", "gcs":
	default:
		return fmt.Errorf("blob.backend: unknown backend %q", c.Blob.Backend)
	}
	if c.Blob.Backend == "gcs" && c.Blob.GCSBucket == "" {
		return fmt.Errorf("blob.gcs_bucket is required for the gcs backend")
	}
	switch c.LLM.Provider {
	case "none", "anthropic", "openai":
	default:
		return fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider)
	}
	if c.Enrich.Timeout < 0 || c.Fetch.Timeout < 0 || c.Shutdown.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// YAML renders the configuration with secrets masked.
func (c Config) YAML() (string, error) {
	c.APIKey = mask(c.APIKey)
	c.LLM.APIKey = mask(c.LLM.APIKey)
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
