package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sudooom.storefront/internal/model"
	"sudooom.storefront/internal/notify"
	"sudooom.storefront/internal/querycache"
	"sudooom.storefront/internal/realtime"
	appErrors "sudooom.storefront/pkg/errors"
)

// Mode which side of the chat the session serves
type Mode int

const (
	// ModeUser end user talking to the shop through a single conversation
	ModeUser Mode = iota
	// ModeAdmin admin console handling every customer conversation
	ModeAdmin
)

func (m Mode) String() string {
	if m == ModeAdmin {
		return "admin"
	}
	return "user"
}

// Domain realtime domain of the mode.
func (m Mode) Domain() realtime.Domain {
	if m == ModeAdmin {
		return realtime.DomainAdminChat
	}
	return realtime.DomainChat
}

// ChatOptions tunables, zero values get defaults
type ChatOptions struct {
	Mode                 Mode
	MessageEvent         string
	NewConversationEvent string
	PreviewLimit         int
	MessagePageSize      int
	ConversationPageSize int
	HandlerTimeout       time.Duration
}

func (o *ChatOptions) applyDefaults() {
	if o.MessageEvent == "" {
		o.MessageEvent = "message"
	}
	if o.NewConversationEvent == "" {
		o.NewConversationEvent = "newConversation"
	}
	if o.PreviewLimit <= 0 {
		o.PreviewLimit = notify.PreviewLimit
	}
	if o.MessagePageSize <= 0 {
		o.MessagePageSize = 20
	}
	if o.ConversationPageSize <= 0 {
		o.ConversationPageSize = 50
	}
	if o.HandlerTimeout <= 0 {
		o.HandlerTimeout = 10 * time.Second
	}
}

// ChatDeps collaborators of a ChatSession. Invalidator defaults to Cache.
type ChatDeps struct {
	Opener      ChannelOpener
	API         ChatAPI
	Cache       *querycache.Cache
	Invalidator querycache.Invalidator
	Toaster     notify.Toaster
	Logger      *slog.Logger
}

// ChatSession one mounted chat widget: its socket, selection, compose
// buffer, unread bookkeeping and message history.
type ChatSession struct {
	opts    ChatOptions
	api     ChatAPI
	opener  ChannelOpener
	cache   *querycache.Cache
	inv     querycache.Invalidator
	toaster notify.Toaster
	logger  *slog.Logger
	unread  *UnreadSet

	createMu sync.Mutex // one conversation creation at a time

	mu            sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
	opened        bool
	closed        bool
	ch            realtime.Channel
	offs          []func()
	unregister    []func()
	unregisterMsg func()
	conversations []model.Conversation
	selected      string
	draft         string
	history       *History
	viewport      *RowViewport
}

// NewChatSession creates a closed-over session; call Open to mount it.
func NewChatSession(deps ChatDeps, opts ChatOptions) *ChatSession {
	opts.applyDefaults()
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
	s := &ChatSession{
		opts:    opts,
		api:     deps.API,
		opener:  deps.Opener,
		cache:   cache,
		inv:     inv,
		toaster: toaster,
		logger:  logger.With("component", "chat", "mode", opts.Mode.String()),
		unread:  NewUnreadSet(),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.viewport = NewRowViewport(s.messageRows, 1)
	return s
}

func (s *ChatSession) scope() string { return s.opts.Mode.String() }

func (s *ChatSession) conversationsKey() querycache.Key {
	return querycache.ConversationsKey(s.scope())
}

func (s *ChatSession) messagesKey(id string) querycache.Key {
	return querycache.MessagesKey(s.scope(), id)
}

// Open connects the socket, registers the handlers and loads the
// conversation list. In user mode a conversation is created when none
// exists; the first conversation is selected when nothing is.
func (s *ChatSession) Open(ctx context.Context) error {
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

	ch, err := s.opener.Open(ctx, s.opts.Mode.Domain())
	if err != nil {
		s.logger.Warn("Failed to open chat channel", "error", err)
		s.mu.Lock()
		s.opened = false
		s.mu.Unlock()
		return err
	}

	offs := []func(){ch.On(s.opts.MessageEvent, s.onMessage)}
	if s.opts.Mode == ModeAdmin {
		offs = append(offs, ch.On(s.opts.NewConversationEvent, s.onNewConversation))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		for _, off := range offs {
			off()
		}
		ch.Close()
		return appErrors.ErrSessionClosed
	}
	s.ch = ch
	s.offs = offs
	s.unregister = append(s.unregister, s.cache.Register(s.conversationsKey(), s.fetchConversations))
	s.mu.Unlock()

	value, err := s.cache.Fetch(ctx, s.conversationsKey())
	if err != nil {
		s.logger.Warn("Failed to load conversations", "error", err)
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Chat", Body: appErrors.GetMessage(err)})
		return err
	}
	convs, _ := value.([]model.Conversation)

	if s.Selected() != "" {
		return nil
	}
	if len(convs) > 0 {
		return s.Select(ctx, convs[0].ID)
	}
	if s.opts.Mode == ModeUser {
		if _, err := s.ensureConversation(ctx); err != nil {
			s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Chat", Body: appErrors.GetMessage(err)})
			return err
		}
	}
	return nil
}

// Close deregisters the handlers, closes the socket and drops the session
// state. Fetches that finish afterwards change nothing. Idempotent.
func (s *ChatSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	offs, unregister, ch := s.offs, s.unregister, s.ch
	if s.unregisterMsg != nil {
		unregister = append(unregister, s.unregisterMsg)
	}
	s.offs, s.unregister, s.unregisterMsg, s.ch = nil, nil, nil, nil
	s.history = nil
	s.conversations = nil
	s.mu.Unlock()

	for _, off := range offs {
		off()
	}
	s.cancel()
	for _, un := range unregister {
		un()
	}
	s.unread.Clear()

	if ch == nil {
		return nil
	}
	return ch.Close()
}

func (s *ChatSession) fetchConversations(ctx context.Context) (any, error) {
	convs, err := s.api.ListConversations(ctx, s.opts.ConversationPageSize)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if !s.closed {
		s.conversations = convs
	}
	s.mu.Unlock()
	return convs, nil
}

func (s *ChatSession) messagesFetcher(h *History) querycache.Fetcher {
	return func(ctx context.Context) (any, error) {
		msgs, err := h.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		current := !s.closed && s.history == h
		s.mu.Unlock()
		if current {
			h.Settle(s.viewport)
		}
		return msgs, nil
	}
}

// Select opens conversation id. It leaves the unread set before anything
// touches the network; selecting an id that is not unread is a no-op there.
func (s *ChatSession) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return appErrors.ErrSessionClosed
	}
	s.unread.Remove(id)
	if s.selected == id && s.history != nil {
		s.mu.Unlock()
		return nil
	}

	s.selected = id
	if s.unregisterMsg != nil {
		s.unregisterMsg()
	}
	h := NewHistory(func(ctx context.Context, page, pageSize int) (*model.Page[model.Message], error) {
		return s.api.ListMessages(ctx, id, page, pageSize)
	}, s.opts.MessagePageSize)
	s.history = h
	s.viewport.SetScrollTop(0)
	key := s.messagesKey(id)
	s.unregisterMsg = s.cache.Register(key, s.messagesFetcher(h))
	s.mu.Unlock()

	if _, err := s.cache.Fetch(ctx, key); err != nil {
		s.logger.Warn("Failed to load messages", "conversation_id", id, "error", err)
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Chat", Body: appErrors.GetMessage(err)})
		return err
	}
	return nil
}

// ensureConversation returns the selected conversation, creating the end
// user's conversation when there is none yet.
func (s *ChatSession) ensureConversation(ctx context.Context) (string, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	if id := s.Selected(); id != "" {
		return id, nil
	}
	if s.opts.Mode != ModeUser {
		return "", appErrors.ErrNoConversation
	}

	conv, err := s.api.CreateConversation(ctx)
	if err != nil {
		s.logger.Warn("Failed to create conversation", "error", err)
		return "", err
	}
	if conv == nil || conv.ID == "" {
		s.logger.Warn("Create conversation returned no id")
		return "", appErrors.ErrNoConversation.Wrap(errors.New("server returned no conversation id")).
			WithMessage("Could not start a conversation")
	}
	s.logger.Info("Conversation created", "conversation_id", conv.ID)

	if _, err := s.cache.Fetch(ctx, s.conversationsKey()); err != nil {
		s.logger.Warn("Failed to reload conversations", "error", err)
	}
	// the selection stands even if the first page fails to load
	if err := s.Select(ctx, conv.ID); appErrors.Is(err, appErrors.ErrSessionClosed) {
		return "", err
	}
	return conv.ID, nil
}

// SetDraft replaces the compose buffer.
func (s *ChatSession) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

func (s *ChatSession) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Send sends the compose buffer to the selected conversation. On success the
// buffer is cleared and the messages are refetched; on failure the buffer is
// kept and an error toast is shown.
func (s *ChatSession) Send(ctx context.Context) (*model.Message, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, appErrors.ErrSessionClosed
	}
	draft := s.draft
	s.mu.Unlock()

	content := strings.TrimSpace(draft)
	if content == "" {
		s.toaster.Show(notify.Toast{Level: notify.LevelWarning, Title: "Chat", Body: appErrors.ErrEmptyMessage.Message})
		return nil, appErrors.ErrEmptyMessage
	}

	id, err := s.ensureConversation(ctx)
	if err != nil {
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Chat", Body: appErrors.GetMessage(err)})
		return nil, err
	}

	msg, err := s.api.SendMessage(ctx, model.SendMessageRequest{
		ConversationID: id,
		Content:        content,
		ClientMsgID:    uuid.NewString(),
	})
	if err != nil {
		s.logger.Warn("Failed to send message", "conversation_id", id, "error", err)
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Message not sent", Body: appErrors.GetMessage(err)})
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return msg, nil
	}
	// keep anything typed while the send was in flight
	if s.draft == draft {
		s.draft = ""
	}
	s.mu.Unlock()

	s.inv.Invalidate(ctx, s.messagesKey(id))
	return msg, nil
}

// SendText sets the compose buffer to text and sends it.
func (s *ChatSession) SendText(ctx context.Context, text string) (*model.Message, error) {
	s.SetDraft(text)
	return s.Send(ctx)
}

// LoadOlder prepends the next older page of the selected conversation and
// keeps the reader's position. False when everything is loaded.
func (s *ChatSession) LoadOlder(ctx context.Context) (bool, error) {
	s.mu.Lock()
	h := s.history
	s.mu.Unlock()
	if h == nil {
		return false, appErrors.ErrNoConversation
	}

	more, err := h.LoadOlder(ctx, s.viewport)
	if err != nil {
		s.logger.Warn("Failed to load older messages", "error", err)
		s.toaster.Show(notify.Toast{Level: notify.LevelError, Title: "Chat", Body: appErrors.GetMessage(err)})
		return false, err
	}

	s.mu.Lock()
	current := !s.closed && s.history == h
	s.mu.Unlock()
	if current {
		h.Settle(s.viewport)
	}
	return more, nil
}

// onMessage "new message" handler, runs on the channel's event loop.
func (s *ChatSession) onMessage(data json.RawMessage) {
	s.HandleMessage(data)
}

// HandleMessage applies one inbound message event. The open conversation is
// refetched; any other conversation becomes unread and gets a toast. The
// conversation list is refetched either way.
func (s *ChatSession) HandleMessage(data []byte) {
	ev := parseMessageEvent(data)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	open := ev.ConversationID != "" && ev.ConversationID == s.selected
	if !open && ev.ConversationID != "" {
		s.unread.Add(ev.ConversationID)
	}
	ctx := s.ctx
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.opts.HandlerTimeout)
	defer cancel()

	switch {
	case ev.ConversationID == "":
		s.logger.Warn("Message event without conversation id", "size", len(data))
	case open:
		s.inv.Invalidate(ctx, s.messagesKey(ev.ConversationID))
	default:
		s.toaster.Show(notify.Toast{
			Level: notify.LevelInfo,
			Title: ev.Sender,
			Body:  notify.Truncate(ev.Content, s.opts.PreviewLimit),
		})
	}

	s.inv.Invalidate(ctx, s.conversationsKey())
}

func (s *ChatSession) onNewConversation(data json.RawMessage) {
	s.HandleNewConversation(data)
}

// HandleNewConversation admin only: toast and refetch the list.
func (s *ChatSession) HandleNewConversation(data []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.mu.Unlock()

	body := "A customer started a conversation"
	if who := newConversationLabel(data); who != "" {
		body = who + " started a conversation"
	}
	s.toaster.Show(notify.Toast{Level: notify.LevelInfo, Title: "New conversation", Body: body})

	ctx, cancel := context.WithTimeout(ctx, s.opts.HandlerTimeout)
	defer cancel()
	s.inv.Invalidate(ctx, s.conversationsKey())
}

func (s *ChatSession) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Conversation(nil), s.conversations...)
}

// Messages selected conversation, oldest first.
func (s *ChatSession) Messages() []model.Message {
	s.mu.Lock()
	h := s.history
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Messages()
}

func (s *ChatSession) messageRows() int {
	return len(s.Messages())
}

func (s *ChatSession) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Unread sorted snapshot of the unread conversation ids.
func (s *ChatSession) Unread() []string {
	return s.unread.Snapshot()
}

// UnreadSet live set, for status reporting.
func (s *ChatSession) UnreadSet() *UnreadSet {
	return s.unread
}

// Viewport the scroll state of the rendered message list.
func (s *ChatSession) Viewport() Viewport {
	return s.viewport
}

// State realtime state, disconnected before Open and after Close.
func (s *ChatSession) State() realtime.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		return realtime.StateDisconnected
	}
	return s.ch.State()
}
