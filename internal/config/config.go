package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app" yaml:"app"`
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	Realtime RealtimeConfig `mapstructure:"realtime" yaml:"realtime"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	NATS     NATSConfig     `mapstructure:"nats" yaml:"nats"`
	Chat     ChatConfig     `mapstructure:"chat" yaml:"chat"`
}

type AppConfig struct {
	Name       string `mapstructure:"name" yaml:"name"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	StatusAddr string `mapstructure:"status_addr" yaml:"status_addr"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// RealtimeConfig socket endpoint and event names
type RealtimeConfig struct {
	URL                  string        `mapstructure:"url" yaml:"url"`
	ChatPath             string        `mapstructure:"chat_path" yaml:"chat_path"`
	AdminChatPath        string        `mapstructure:"admin_chat_path" yaml:"admin_chat_path"`
	NotificationPath     string        `mapstructure:"notification_path" yaml:"notification_path"`
	ChatEvent            string        `mapstructure:"chat_event" yaml:"chat_event"`
	NewConversationEvent string        `mapstructure:"new_conversation_event" yaml:"new_conversation_event"`
	NotificationEvent    string        `mapstructure:"notification_event" yaml:"notification_event"`
	HandshakeTimeout     time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	ReconnectWait        time.Duration `mapstructure:"reconnect_wait" yaml:"reconnect_wait"`
	MaxReconnects        int           `mapstructure:"max_reconnects" yaml:"max_reconnects"`
	PingInterval         time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	QueueSize            int           `mapstructure:"queue_size" yaml:"queue_size"`
}

// AuthConfig where the persisted token lives
type AuthConfig struct {
	TokenKey string `mapstructure:"token_key" yaml:"token_key"`
	Token    string `mapstructure:"token" yaml:"-"` // static override, never printed
}

type RedisConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Password string `mapstructure:"password" yaml:"-"`
	DB       int    `mapstructure:"db" yaml:"db"`
	PoolSize int    `mapstructure:"pool_size" yaml:"pool_size"`
}

// Addr host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled             bool          `mapstructure:"enabled" yaml:"enabled"`
	URL                 string        `mapstructure:"url" yaml:"url"`
	MaxReconnects       int           `mapstructure:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait       time.Duration `mapstructure:"reconnect_wait" yaml:"reconnect_wait"`
	InvalidationSubject string        `mapstructure:"invalidation_subject" yaml:"invalidation_subject"`
}

type ChatConfig struct {
	PreviewLimit         int `mapstructure:"preview_limit" yaml:"preview_limit"`
	MessagePageSize      int `mapstructure:"message_page_size" yaml:"message_page_size"`
	ConversationPageSize int `mapstructure:"conversation_page_size" yaml:"conversation_page_size"`
	NotificationPageSize int `mapstructure:"notification_page_size" yaml:"notification_page_size"`
}

// Load reads the YAML file at path (optional when empty or missing) and
// applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// environment wins over the file
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "storefront-console")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.status_addr", ":8090")

	v.SetDefault("api.base_url", "http://localhost:3000/api")
	v.SetDefault("api.timeout", 15*time.Second)

	v.SetDefault("realtime.url", "ws://localhost:3000")
	v.SetDefault("realtime.chat_path", "/chat")
	v.SetDefault("realtime.admin_chat_path", "/admin-chat")
	v.SetDefault("realtime.notification_path", "/notification")
	v.SetDefault("realtime.chat_event", "message")
	v.SetDefault("realtime.new_conversation_event", "newConversation")
	v.SetDefault("realtime.notification_event", "notification")
	v.SetDefault("realtime.handshake_timeout", 10*time.Second)
	v.SetDefault("realtime.reconnect_wait", 2*time.Second)
	v.SetDefault("realtime.max_reconnects", 0)
	v.SetDefault("realtime.ping_interval", 25*time.Second)
	v.SetDefault("realtime.queue_size", 256)

	v.SetDefault("auth.token_key", "storefront:auth:token")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 4)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.invalidation_subject", "storefront.console.invalidate")

	v.SetDefault("chat.preview_limit", 50)
	v.SetDefault("chat.message_page_size", 20)
	v.SetDefault("chat.conversation_page_size", 50)
	v.SetDefault("chat.notification_page_size", 10)
}

// applyEnv overrides file values from the environment
func (c *Config) applyEnv() {
	// App
	c.App.LogLevel = GetEnv("CONSOLE_LOG_LEVEL", c.App.LogLevel)
	c.App.StatusAddr = GetEnv("CONSOLE_STATUS_ADDR", c.App.StatusAddr)

	// API
	c.API.BaseURL = GetEnv("STOREFRONT_API_URL", c.API.BaseURL)
	c.API.Timeout = GetEnvDuration("STOREFRONT_API_TIMEOUT", c.API.Timeout)

	// Realtime
	c.Realtime.URL = GetEnv("STOREFRONT_SOCKET_URL", c.Realtime.URL)
	c.Realtime.ChatEvent = GetEnv("STOREFRONT_CHAT_EVENT", c.Realtime.ChatEvent)
	c.Realtime.MaxReconnects = GetEnvInt("STOREFRONT_SOCKET_MAX_RECONNECTS", c.Realtime.MaxReconnects)

	// Auth
	c.Auth.Token = GetEnv("STOREFRONT_TOKEN", c.Auth.Token)

	// Redis
	c.Redis.Host = GetEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = GetEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = GetEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = GetEnvInt("REDIS_DB", c.Redis.DB)

	// NATS
	c.NATS.Enabled = GetEnvBool("NATS_ENABLED", c.NATS.Enabled)
	c.NATS.URL = GetEnv("NATS_URL", c.NATS.URL)
}

// Validate rejects values the console cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Realtime.URL == "" {
		return errors.New("realtime.url is required")
	}
	if c.Realtime.ChatEvent == "" {
		return errors.New("realtime.chat_event is required")
	}
	if c.Chat.PreviewLimit <= 0 {
		return fmt.Errorf("chat.preview_limit must be positive, got %d", c.Chat.PreviewLimit)
	}
	if c.Chat.MessagePageSize <= 0 || c.Chat.ConversationPageSize <= 0 || c.Chat.NotificationPageSize <= 0 {
		return errors.New("chat page sizes must be positive")
	}
	return nil
}
