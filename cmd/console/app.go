package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"sudooom.storefront/internal/api"
	"sudooom.storefront/internal/config"
	"sudooom.storefront/internal/notify"
	"sudooom.storefront/internal/querycache"
	"sudooom.storefront/internal/service"
	"sudooom.storefront/internal/token"
)

// app shared state of one command invocation
type app struct {
	configPath string
	logLevel   string
	out        io.Writer

	cfg         *config.Config
	logger      *slog.Logger
	cache       *querycache.Cache
	invalidator querycache.Invalidator

	redisClient *redis.Client
	nc          *nats.Conn
	broadcaster *querycache.Broadcaster
}

func rootCmd() *cobra.Command {
	return newRootCmd(os.Stdout)
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Storefront sync console",
		Long: `Console keeps the storefront realtime channels in sync.

It provides:
- chat, admin chat and notification watchers with toasts
- order status changes guarded by the transition table
- cart selection and notification housekeeping`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "configs/config.yaml", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides app.log_level")

	cmd.AddCommand(
		watchCmd(a),
		orderCmd(a),
		chatCmd(a),
		notificationsCmd(a),
		cartCmd(a),
		configCmd(a),
	)
	return cmd
}

// init loads the config and installs the JSON logger
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := a.logLevel
	if level == "" {
		level = cfg.App.LogLevel
	}
	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(a.logger)
	gin.SetMode(gin.ReleaseMode)

	a.cache = querycache.New(a.logger)
	a.invalidator = a.cache
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (a *app) close() {
	if a.broadcaster != nil {
		a.broadcaster.Stop()
	}
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			a.nc.Close()
		}
	}
	if a.redisClient != nil {
		a.redisClient.Close()
	}
}

// redis connects lazily; only commands that need it pay for it
func (a *app) redis() *redis.Client {
	if a.redisClient == nil {
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr(),
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
			PoolSize: a.cfg.Redis.PoolSize,
		})
	}
	return a.redisClient
}

// tokens a configured token wins over the one persisted by the login flow
func (a *app) tokens() token.Store {
	persisted := token.NewRedisStore(a.redis(), a.cfg.Auth.TokenKey)
	if a.cfg.Auth.Token != "" {
		return token.Fallback{token.StaticStore(a.cfg.Auth.Token), persisted}
	}
	return persisted
}

func (a *app) apiClient() *api.Client {
	return api.NewClient(a.cfg.API, a.tokens(), a.logger)
}

func (a *app) toaster() notify.Toaster {
	return notify.Multi{notify.NewWriterToaster(a.out), notify.NewLogToaster(a.logger)}
}

// startBroadcast shares cache invalidations with other consoles when NATS is enabled.
// Failing to connect leaves the cache local.
func (a *app) startBroadcast() {
	if !a.cfg.NATS.Enabled {
		return
	}

	nc, err := nats.Connect(a.cfg.NATS.URL,
		nats.Name(a.cfg.App.Name),
		nats.MaxReconnects(a.cfg.NATS.MaxReconnects),
		nats.ReconnectWait(a.cfg.NATS.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			a.logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			a.logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		a.logger.Warn("NATS unavailable, invalidations stay local", "url", a.cfg.NATS.URL, "error", err)
		return
	}
	a.nc = nc

	b := querycache.NewBroadcaster(nc, a.cfg.NATS.InvalidationSubject, a.cache)
	if err := b.Start(); err != nil {
		a.logger.Warn("Failed to subscribe to invalidations", "error", err)
		return
	}
	a.broadcaster = b
	a.invalidator = b
}

func (a *app) chatOptions(mode service.Mode) service.ChatOptions {
	return service.ChatOptions{
		Mode:                 mode,
		MessageEvent:         a.cfg.Realtime.ChatEvent,
		NewConversationEvent: a.cfg.Realtime.NewConversationEvent,
		PreviewLimit:         a.cfg.Chat.PreviewLimit,
		MessagePageSize:      a.cfg.Chat.MessagePageSize,
		ConversationPageSize: a.cfg.Chat.ConversationPageSize,
	}
}

func (a *app) notificationOptions() service.NotificationOptions {
	return service.NotificationOptions{
		Event:    a.cfg.Realtime.NotificationEvent,
		PageSize: a.cfg.Chat.NotificationPageSize,
	}
}
