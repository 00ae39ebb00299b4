package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dashboard backend sources.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

const (
	defaultPort            = "8080"
	defaultRemoBaseURL     = "https://api.nature.global/1"
	defaultRemoTimeout     = 15 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerOpenFor  = 30 * time.Second
	defaultPollInterval    = 300 * time.Second
	defaultMQTTClientID    = "remo-dashboard"
	defaultMQTTTopic       = "remo/dashboard/environment"
	defaultMaxEvents       = 1000

	// memoryDB keeps the event log in process memory; the pool is pinned to one
	// connection so every query sees the same database.
	memoryDB = ":memory:"
)

// Config is the resolved service configuration.
type Config struct {
	Port string
	Log  LogConfig
	DB   DBConfig
	Remo RemoConfig

	Dashboard DashboardConfig
	MQTT      MQTTConfig
}

type LogConfig struct {
	Level    string
	Encoding string
}

type DBConfig struct {
	Path      string
	MaxEvents int // activity log retention; 0 keeps everything
}

type RemoConfig struct {
	BaseURL         string
	Token           string
	Timeout         time.Duration
	BreakerFailures int
	BreakerOpenFor  time.Duration
}

type DashboardConfig struct {
	Source       string // local | remote
	APIBaseURL   string // used when Source is remote
	PollInterval time.Duration
}

// MQTTConfig enables sample publishing when Broker is set.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// Load reads config.yml from the given directories (if present) and
// overlays environment variables: REMO_TOKEN plus DASHBOARD_<KEY> with dots
// replaced by underscores, e.g. DASHBOARD_LOG_LEVEL.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix("dashboard")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// REMO_TOKEN is read without the prefix.
	if err := v.BindEnv("remo.token", "REMO_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind REMO_TOKEN: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("db.path", "")
	v.SetDefault("db.max_events", defaultMaxEvents)
	v.SetDefault("remo.base_url", defaultRemoBaseURL)
	v.SetDefault("remo.token", "")
	v.SetDefault("remo.timeout", defaultRemoTimeout)
	v.SetDefault("remo.breaker_failures", defaultBreakerFailures)
	v.SetDefault("remo.breaker_open_for", defaultBreakerOpenFor)
	v.SetDefault("dashboard.source", SourceLocal)
	v.SetDefault("dashboard.api_base_url", "")
	v.SetDefault("dashboard.poll_interval", defaultPollInterval)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", defaultMQTTClientID)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic", defaultMQTTTopic)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port: v.GetString("port"),
		Log: LogConfig{
			Level:    v.GetString("log.level"),
			Encoding: v.GetString("log.encoding"),
		},
		DB: DBConfig{
			Path:      v.GetString("db.path"),
			MaxEvents: v.GetInt("db.max_events"),
		},
		Remo: RemoConfig{
			BaseURL:         strings.TrimRight(strings.TrimSpace(v.GetString("remo.base_url")), "/"),
			Token:           strings.TrimSpace(v.GetString("remo.token")),
			Timeout:         v.GetDuration("remo.timeout"),
			BreakerFailures: v.GetInt("remo.breaker_failures"),
			BreakerOpenFor:  v.GetDuration("remo.breaker_open_for"),
		},
		Dashboard: DashboardConfig{
			Source:       strings.ToLower(strings.TrimSpace(v.GetString("dashboard.source"))),
			APIBaseURL:   strings.TrimRight(strings.TrimSpace(v.GetString("dashboard.api_base_url")), "/"),
			PollInterval: v.GetDuration("dashboard.poll_interval"),
		},
		MQTT: MQTTConfig{
			Broker:   v.GetString("mqtt.broker"),
			ClientID: v.GetString("mqtt.client_id"),
			Username: v.GetString("mqtt.username"),
			Password: v.GetString("mqtt.password"),
			Topic:    v.GetString("mqtt.topic"),
		},
	}
}

// Validate enforces invariants viper cannot express. A missing token is not
// an error here: the proxy reports it per request.
func (c *Config) Validate() error {
	if c.Remo.BaseURL == "" {
		return fmt.Errorf("remo.base_url is required")
	}
	if c.Remo.Timeout <= 0 {
		return fmt.Errorf("remo.timeout must be positive")
	}
	if c.DB.MaxEvents < 0 {
		return fmt.Errorf("db.max_events must be >= 0")
	}
	if c.Remo.BreakerFailures < 0 {
		return fmt.Errorf("remo.breaker_failures must be >= 0")
	}
	if c.Dashboard.PollInterval <= 0 {
		return fmt.Errorf("dashboard.poll_interval must be positive")
	}
	switch c.Dashboard.Source {
	case SourceLocal:
	case SourceRemote:
		if c.Dashboard.APIBaseURL == "" {
			return fmt.Errorf("dashboard.api_base_url is required when dashboard.source is %q", SourceRemote)
		}
	default:
		return fmt.Errorf("dashboard.source must be %q or %q, got %q", SourceLocal, SourceRemote, c.Dashboard.Source)
	}
	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		return fmt.Errorf("mqtt.topic is required when mqtt.broker is set")
	}
	return nil
}

// DBPath returns the configured SQLite path or the in-memory default.
func (c *Config) DBPath() string {
	if strings.TrimSpace(c.DB.Path) == "" {
		return memoryDB
	}
	return c.DB.Path
}
