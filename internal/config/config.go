package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Presence PresenceConfig
	Relay    RelayConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host       string
	Port       int
	InstanceID string `mapstructure:"instance_id"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Address       string
	Password      string
	DB            int
	CursorChannel string `mapstructure:"cursor_channel"`
}

type AuthConfig struct {
	Issuer          string
	AccessDuration  time.Duration `mapstructure:"access_duration"`
	RefreshDuration time.Duration `mapstructure:"refresh_duration"`
}

type PresenceConfig struct {
	Channel          string
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	PingInterval     time.Duration `mapstructure:"ping_interval"`
	PongWait         time.Duration `mapstructure:"pong_wait"`
	WriteWait        time.Duration `mapstructure:"write_wait"`
	MaxMessageSize   int64         `mapstructure:"max_message_size"`
}

type RelayConfig struct {
	Port     int
	Upstream string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from ./config/config.yaml plus environment
// variable overrides and returns the typed config.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, rely on defaults and env vars.
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.db_name", "storefront")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cursor_channel", "presence:cursor_updates")
	v.SetDefault("auth.issuer", "live-storefront")
	v.SetDefault("auth.access_duration", "15m")
	v.SetDefault("auth.refresh_duration", "168h")
	v.SetDefault("presence.channel", "online_users")
	v.SetDefault("presence.heartbeat_timeout", "90s")
	v.SetDefault("presence.sweep_interval", "10s")
	v.SetDefault("presence.ping_interval", "30s")
	v.SetDefault("presence.pong_wait", "60s")
	v.SetDefault("presence.write_wait", "10s")
	v.SetDefault("presence.max_message_size", 4096)
	v.SetDefault("relay.port", 3001)
	v.SetDefault("relay.upstream", "http://127.0.0.1:54321")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.instance_id", "INSTANCE_ID")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.db_name", "DB_NAME")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.cursor_channel", "REDIS_CURSOR_CHANNEL")
	v.BindEnv("relay.port", "RELAY_PORT")
	v.BindEnv("relay.upstream", "RELAY_UPSTREAM")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Auth.AccessDuration = parseDuration(v, "auth.access_duration", 15*time.Minute)
	cfg.Auth.RefreshDuration = parseDuration(v, "auth.refresh_duration", 168*time.Hour)
	cfg.Presence.HeartbeatTimeout = parseDuration(v, "presence.heartbeat_timeout", 90*time.Second)
	cfg.Presence.SweepInterval = parseDuration(v, "presence.sweep_interval", 10*time.Second)
	cfg.Presence.PingInterval = parseDuration(v, "presence.ping_interval", 30*time.Second)
	cfg.Presence.PongWait = parseDuration(v, "presence.pong_wait", 60*time.Second)
	cfg.Presence.WriteWait = parseDuration(v, "presence.write_wait", 10*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
