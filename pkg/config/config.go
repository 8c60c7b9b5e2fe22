package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// MQTT publishing modes
const (
	MqttModeNone     = "none"
	MqttModeEmbedded = "embedded"
	MqttModeRemote   = "remote"
)

type Configuration struct {
	ListenAddr    string `mapstructure:"listen_addr"`
	SessionSecret string `mapstructure:"session_secret"`
	LogLevel      string `mapstructure:"log_level"`
	// ServerHost is the initial API server host; it can be changed at
	// runtime from the dashboard.
	ServerHost     string        `mapstructure:"server_host"`
	TimeZone       string        `mapstructure:"time_zone"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	StatusInterval time.Duration `mapstructure:"status_interval"`
	ToggleTTL      time.Duration `mapstructure:"toggle_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Mqtt           MqttSettings  `mapstructure:"mqtt"`
}

type MqttSettings struct {
	Mode      string `mapstructure:"mode"`
	RootTopic string `mapstructure:"root_topic"`
	// ListenAddr is where the embedded broker accepts subscribers. Empty
	// means inline only.
	ListenAddr string `mapstructure:"listen_addr"`
	// Broker and ClientID are used to reach a remote broker.
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	// Password is sent to a remote broker.
	Password string `mapstructure:"password"`
	// PasswordHash and Salt authenticate subscribers of the embedded
	// broker, see cmd/genpass.
	PasswordHash string `mapstructure:"password_hash"`
	Salt         string `mapstructure:"salt"`
	// OpenTopics may be subscribed to without credentials.
	OpenTopics []string `mapstructure:"open_topics"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("session_secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("server_host", "192.168.0.73:3000")
	v.SetDefault("time_zone", "America/Phoenix")
	v.SetDefault("poll_interval", 30*time.Second)
	v.SetDefault("status_interval", 30*time.Second)
	v.SetDefault("toggle_ttl", 10*time.Second)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("mqtt.mode", MqttModeNone)
	v.SetDefault("mqtt.root_topic", "dashboard")
	v.SetDefault("mqtt.listen_addr", ":1883")
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "device-dashboard")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.password_hash", "")
	v.SetDefault("mqtt.salt", "")
	v.SetDefault("mqtt.open_topics", []string{})
}

// NewViper returns a viper instance reading dashboard.yaml and DASHBOARD_*
// environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName("dashboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/dashboard")
	v.AddConfigPath("/etc/dashboard")
	v.SetEnvPrefix("dashboard")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads the config file, either the one given or the first found
// on the search path. A missing file on the search path is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !(path == "" && errors.As(err, &notFound)) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load decodes v into a Configuration and validates it.
func Load(v *viper.Viper) (Configuration, error) {
	var cfg Configuration
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that cannot be defaulted sensibly.
func (c Configuration) Validate() error {
	if strings.TrimSpace(c.ServerHost) == "" {
		return errors.New("server_host must not be empty")
	}
	for name, d := range map[string]time.Duration{
		"poll_interval":   c.PollInterval,
		"status_interval": c.StatusInterval,
		"toggle_ttl":      c.ToggleTTL,
		"request_timeout": c.RequestTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid time_zone %q: %w", c.TimeZone, err)
	}
	switch c.Mqtt.Mode {
	case MqttModeNone, MqttModeEmbedded:
	case MqttModeRemote:
		if c.Mqtt.Broker == "" {
			return errors.New("mqtt.broker is required in remote mode")
		}
	default:
		return fmt.Errorf("unknown mqtt.mode %q", c.Mqtt.Mode)
	}
	return nil
}
