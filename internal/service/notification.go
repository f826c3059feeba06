package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"sudooom.storefront/internal/model"
	"sudooom.storefront/internal/notify"
	"sudooom.storefront/internal/querycache"
	"sudooom.storefront/internal/realtime"
	appErrors "sudooom.storefront/pkg/errors"
)

type NotificationOptions struct {
	Event          string
	PageSize       int
	HandlerTimeout time.Duration
}

// NotificationDeps collaborators of a NotificationSession.
type NotificationDeps struct {
	Opener      ChannelOpener
	API         NotificationAPI
	Cache       *querycache.Cache
	Invalidator querycache.Invalidator
	Toaster     notify.Toaster
	Logger      *slog.Logger
}

// NotificationSession app-level notification listener plus the
// notification list and unread counter it keeps fresh.
type NotificationSession struct {
	opts    NotificationOptions
	api     NotificationAPI
	opener  ChannelOpener
	cache   *querycache.Cache
	inv     querycache.Invalidator
	toaster notify.Toaster
	logger  *slog.Logger

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	opened     bool
	closed     bool
	ch         realtime.Channel
	offs       []func()
	unregister []func()
	page       int
	list       *model.Page[model.Notification]
	unread     int
}

func NewNotificationSession(deps NotificationDeps, opts NotificationOptions) *NotificationSession {
	if opts.Event == "" {
		opts.Event = "notification"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 10 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := deps.Cache
	if cache == nil {
		cache = querycache.New(logger)
	}
	inv := deps.Invalidator
	if inv == nil {
		inv = cache
	}
	toaster := deps.Toaster
	if toaster == nil {
		toaster = notify.NewLogToaster(logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationSession{
		opts:    opts,
		api:     deps.API,
		opener:  deps.Opener,
		cache:   cache,
		inv:     inv,
		toaster: toaster,
		logger:  logger.With("component", "notifications"),
		ctx:     ctx,
		cancel:  cancel,
		page:    1,
	}
}

// Open connects the notification socket and loads the first page and the
// unread counter. Load failures are logged; the listener stays up.
func (s *NotificationSession) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return appErrors.ErrSessionClosed
	}
	if s.opened {
		s.mu.Unlock()
		return nil
	}
	s.opened = true
	s.mu.Unlock()

	ch, err := s.opener.Open(ctx, realtime.DomainNotification)
	if err != nil {
		s.logger.Warn("Failed to open notification channel", "error", err)
		s.mu.Lock()
		s.opened = false
		s.mu.Unlock()
		return err
	}
	off := ch.On(s.opts.Event, s.onNotification)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		off()
		ch.Close()
		return appErrors.ErrSessionClosed
	}
	s.ch = ch
	s.offs = []func(){off}
	s.unregister = append(s.unregister,
		s.cache.Register(querycache.NotificationsKey(), s.fetchList),
		s.cache.Register(querycache.UnreadCountKey(), s.fetchUnread),
	)
	s.mu.Unlock()

	for _, key := range []querycache.Key{querycache.NotificationsKey(), querycache.UnreadCountKey()} {
		if _, err := s.cache.Fetch(ctx, key); err != nil {
			s.logger.Warn("Failed to load notifications", "key", key, "error", err)
		}
	}
	return nil
}

// Close deregisters the handler and closes the socket. Idempotent.
func (s *NotificationSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	offs, unregister, ch := s.offs, s.unregister, s.ch
	s.offs, s.unregister, s.ch = nil, nil, nil
	s.mu.Unlock()

	for _, off := range offs {
		off()
	}
	s.cancel()
	for _, un := range unregister {
		un()
	}
	if ch == nil {
		return nil
	}
	return ch.Close()
}

func (s *NotificationSession) fetchList(ctx context.Context) (any, error) {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()

	out, err := s.api.ListNotifications(ctx, page, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if !s.closed {
		s.list = out
	}
	s.mu.Unlock()
	return out, nil
}

func (s *NotificationSession) fetchUnread(ctx context.Context) (any, error) {
	out, err := s.api.GetUnreadNotificationCount(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if !s.closed {
		s.unread = out.TotalUnread
	}
	s.mu.Unlock()
	return out.TotalUnread, nil
}

func (s *NotificationSession) onNotification(data json.RawMessage) {
	s.HandleNotification(data)
}

// HandleNotification toasts the notification and refetches the list and
// the counter. Never suppressed, even while the list is on screen.
func (s *NotificationSession) HandleNotification(data []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.mu.Unlock()

	ev := parseNotificationEvent(data)
	s.toaster.Show(notify.Toast{
		Level: ev.level(),
		Title: ev.Title,
		Body:  ev.Content,
	})
	if ev.OrderID != "" {
		s.logger.Info("Order notification received", "order_id", ev.OrderID)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.HandlerTimeout)
	defer cancel()
	s.inv.Invalidate(ctx, querycache.NotificationsKey())
	s.inv.Invalidate(ctx, querycache.UnreadCountKey())
}

// List loads page of the notification list and makes it the current page.
func (s *NotificationSession) List(ctx context.Context, page int) (*model.Page[model.Notification], error) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, appErrors.ErrSessionClosed
	}
	s.page = page
	s.mu.Unlock()

	value, err := s.cache.Fetch(ctx, querycache.NotificationsKey())
	if err != nil {
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Notifications", Body: appErrors.GetMessage(err)})
		return nil, err
	}
	out, _ := value.(*model.Page[model.Notification])
	return out, nil
}

// Notifications current page, newest first.
func (s *NotificationSession) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.list == nil {
		return nil
	}
	return append([]model.Notification(nil), s.list.Data...)
}

// UnreadCount last known unread counter.
func (s *NotificationSession) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkRead marks one notification read. There is no optimistic update: the
// list changes only through the refetch after the server accepted.
func (s *NotificationSession) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Notifications", Body: appErrors.ErrNotificationNotFound.Message})
		return appErrors.ErrNotificationNotFound
	}
	return s.mutate(ctx, "Notification marked as read", func(ctx context.Context) error {
		return s.api.MarkNotificationRead(ctx, id)
	})
}

// MarkAllRead marks every notification read.
func (s *NotificationSession) MarkAllRead(ctx context.Context) error {
	return s.mutate(ctx, "All notifications marked as read", s.api.MarkAllNotificationsRead)
}

func (s *NotificationSession) mutate(ctx context.Context, success string, call func(context.Context) error) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return appErrors.ErrSessionClosed
	}

	if err := call(ctx); err != nil {
		s.logger.Warn("Notification update failed", "error", err)
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Notifications", Body: appErrors.GetMessage(err)})
		return err
	}

	s.toaster.Show(notify.Toast{Level: notify.LevelSuccess, Title: "Notifications", Body: success})
	s.inv.Invalidate(ctx, querycache.NotificationsKey())
	s.inv.Invalidate(ctx, querycache.UnreadCountKey())
	return nil
}

// State realtime state of the notification socket.
func (s *NotificationSession) State() realtime.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		return realtime.StateDisconnected
	}
	return s.ch.State()
}
