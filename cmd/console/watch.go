package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sudooom.storefront/internal/api"
	"sudooom.storefront/internal/health"
	"sudooom.storefront/internal/querycache"
	"sudooom.storefront/internal/realtime"
	"sudooom.storefront/internal/service"
)

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep a realtime channel open and print what arrives",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "chat",
			Short: "Watch the end-user chat",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.watchChat(cmd.Context(), service.ModeUser)
			},
		},
		&cobra.Command{
			Use:   "admin",
			Short: "Watch every customer conversation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.watchChat(cmd.Context(), service.ModeAdmin)
			},
		},
		&cobra.Command{
			Use:   "notifications",
			Short: "Watch notifications",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.watchNotifications(cmd.Context())
			},
		},
	)
	return cmd
}

func (a *app) connector() *realtime.Connector {
	c := realtime.NewConnector(a.cfg.Realtime, a.tokens(), a.logger)
	c.OnStateChange(func(d realtime.Domain, s realtime.State) {
		if s == realtime.StateReconnecting {
			fmt.Fprintf(a.out, "[%s] connection lost, reconnecting\n", d)
		}
	})
	return c
}

func (a *app) watchChat(ctx context.Context, mode service.Mode) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.startBroadcast()

	scope := api.ScopeUser
	if mode == service.ModeAdmin {
		scope = api.ScopeAdmin
	}
	session := service.NewChatSession(service.ChatDeps{
		Opener:      a.connector(),
		API:         a.apiClient().Chat(scope),
		Cache:       a.cache,
		Invalidator: a.invalidator,
		Toaster:     a.toaster(),
		Logger:      a.logger,
	}, a.chatOptions(mode))

	if err := session.Open(ctx); err != nil {
		session.Close()
		return err
	}
	defer session.Close()

	fmt.Fprintf(a.out, "watching %s chat: %d conversations, selected %q\n",
		mode, len(session.Conversations()), session.Selected())

	unsubscribe := a.cache.Subscribe(func(key querycache.Key, _ any, err error) {
		if err != nil {
			return
		}
		if key == querycache.ConversationsKey(mode.String()) {
			fmt.Fprintf(a.out, "conversations refreshed, unread: %v\n", session.Unread())
		}
	})
	defer unsubscribe()

	checker := health.NewChecker(a.nc, a.redis())
	checker.Watch(string(mode.Domain()), session)
	return a.serveStatus(ctx, health.NewRouter(checker, session.UnreadSet()))
}

func (a *app) watchNotifications(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.startBroadcast()

	session := service.NewNotificationSession(service.NotificationDeps{
		Opener:      a.connector(),
		API:         a.apiClient(),
		Cache:       a.cache,
		Invalidator: a.invalidator,
		Toaster:     a.toaster(),
		Logger:      a.logger,
	}, a.notificationOptions())

	if err := session.Open(ctx); err != nil {
		session.Close()
		return err
	}
	defer session.Close()

	fmt.Fprintf(a.out, "watching notifications: %d unread\n", session.UnreadCount())

	checker := health.NewChecker(a.nc, a.redis())
	checker.Watch(string(realtime.DomainNotification), session)
	return a.serveStatus(ctx, health.NewRouter(checker, nil))
}

// serveStatus runs the status server until ctx ends
func (a *app) serveStatus(ctx context.Context, handler http.Handler) error {
	if a.cfg.App.StatusAddr == "" {
		<-ctx.Done()
		return nil
	}

	srv := &http.Server{
		Addr:              a.cfg.App.StatusAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Status server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("status server: %w", err)
	}

	a.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
