package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures runtime configuration sourced from an optional YAML file with
// environment variable overrides.
type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	LLM         LLMConfig      `yaml:"llm"`
	Agent       AgentConfig    `yaml:"agent"`
	Notify      NotifyConfig   `yaml:"notify"`
	API         APIConfig      `yaml:"api"`
	Logging     LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	HTTPPort        string        `yaml:"http_port"`
	GracefulTimeout time.Duration `yaml:"graceful_timeout"`
}

// DatabaseConfig selects the store driver. DSN wins over the individual parts.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite, postgres, mysql
	DSN      string `yaml:"dsn"`
	Path     string `yaml:"path"` // sqlite only
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	TLS      bool   `yaml:"tls"`
}

// LLMConfig configures the classifier provider.
type LLMConfig struct {
	Provider string        `yaml:"provider"` // openai, groq, mock
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AgentConfig controls the polling worker.
type AgentConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"`
	ReconnectBackoff time.Duration `yaml:"reconnect_backoff"`
	AtomicConsume    bool          `yaml:"atomic_consume"`
}

// NotifyConfig holds outbound notification targets used by action effects.
type NotifyConfig struct {
	SlackURL string `yaml:"slack_url"` // shoutrrr URL, e.g. slack://token@channel
}

// APIConfig controls the read-only query surface.
type APIConfig struct {
	JWTSecret     string   `yaml:"jwt_secret"`
	CORSOrigins   []string `yaml:"cors_origins"`
	EnforceBlocks bool     `yaml:"enforce_blocks"` // reject callers with a block decision
}

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	Dir   string `yaml:"dir"`
}

// Load reads configuration in precedence order: defaults, YAML file, environment.
// The file path falls back to AGENT_CONFIG. A .env file is loaded first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("AGENT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return Config{}, fmt.Errorf("ensure data directory: %w", err)
		}
	}

	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		Environment: "development",
		Server: ServerConfig{
			HTTPPort:        "8080",
			GracefulTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join("data", "agent.db"),
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  30 * time.Second,
		},
		Agent: AgentConfig{
			PollInterval:     10 * time.Second,
			ReconnectBackoff: 2 * time.Second,
		},
		Logging: LoggingConfig{Dir: filepath.Join("data", "logs")},
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.Environment = getEnv("AGENT_ENV", cfg.Environment)
	cfg.Server.HTTPPort = getEnv("AGENT_HTTP_PORT", cfg.Server.HTTPPort)

	cfg.Database.Driver = strings.ToLower(getEnv("AGENT_DB_DRIVER", cfg.Database.Driver))
	cfg.Database.DSN = getEnv("AGENT_DB_DSN", cfg.Database.DSN)
	cfg.Database.Path = getEnv("AGENT_DB_PATH", cfg.Database.Path)
	cfg.Database.Host = getEnv("AGENT_DB_HOST", cfg.Database.Host)
	cfg.Database.User = getEnv("AGENT_DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("AGENT_DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("AGENT_DB_NAME", cfg.Database.Name)
	if v := os.Getenv("AGENT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("AGENT_DB_TLS"); v != "" {
		cfg.Database.TLS = parseBool(v)
	}

	cfg.LLM.Provider = strings.ToLower(getEnv("AGENT_LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.APIKey = getEnv("AGENT_LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("AGENT_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnv("AGENT_LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Timeout = getDuration("AGENT_LLM_TIMEOUT", cfg.LLM.Timeout)

	cfg.Agent.PollInterval = getDuration("AGENT_POLL_INTERVAL", cfg.Agent.PollInterval)
	cfg.Agent.ReconnectBackoff = getDuration("AGENT_RECONNECT_BACKOFF", cfg.Agent.ReconnectBackoff)
	if v := os.Getenv("AGENT_ATOMIC_CONSUME"); v != "" {
		cfg.Agent.AtomicConsume = parseBool(v)
	}

	cfg.Notify.SlackURL = getEnv("AGENT_SLACK_URL", cfg.Notify.SlackURL)

	cfg.API.JWTSecret = getEnv("AGENT_JWT_SECRET", cfg.API.JWTSecret)
	if v := os.Getenv("AGENT_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.API.CORSOrigins = origins
	}
	if v := os.Getenv("AGENT_ENFORCE_BLOCKS"); v != "" {
		cfg.API.EnforceBlocks = parseBool(v)
	}

	if v := os.Getenv("AGENT_DEBUG"); v != "" {
		cfg.Logging.Debug = parseBool(v)
	}
	cfg.Logging.Dir = getEnv("AGENT_LOG_DIR", cfg.Logging.Dir)
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Agent.PollInterval < time.Second {
		return fmt.Errorf("poll interval must be at least 1s, got %s", c.Agent.PollInterval)
	}
	if c.Agent.ReconnectBackoff < 0 {
		return fmt.Errorf("reconnect backoff must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseBool(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
