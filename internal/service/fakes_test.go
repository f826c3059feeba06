package service

import (
	"context"
	"encoding/json"
	"sync"

	"sudooom.storefront/internal/model"
	"sudooom.storefront/internal/realtime"
)

// fakeChannel delivers emitted events synchronously to registered handlers
type fakeChannel struct {
	domain realtime.Domain

	mu       sync.Mutex
	handlers map[string]map[int]realtime.Handler
	nextID   int
	closed   bool
}

func newFakeChannel(domain realtime.Domain) *fakeChannel {
	return &fakeChannel{domain: domain, handlers: make(map[string]map[int]realtime.Handler)}
}

func (c *fakeChannel) On(event string, h realtime.Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]realtime.Handler)
	}
	c.handlers[event][id] = h
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[event], id)
	}
}

func (c *fakeChannel) emit(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	c.emitRaw(event, raw)
}

func (c *fakeChannel) emitRaw(event string, raw []byte) {
	c.mu.Lock()
	var hs []realtime.Handler
	for _, h := range c.handlers[event] {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		h(raw)
	}
}

func (c *fakeChannel) handlerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, hs := range c.handlers {
		n += len(hs)
	}
	return n
}

func (c *fakeChannel) State() realtime.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return realtime.StateDisconnected
	}
	return realtime.StateConnected
}

func (c *fakeChannel) Domain() realtime.Domain { return c.domain }

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeOpener struct {
	mu       sync.Mutex
	err      error
	channels []*fakeChannel
}

func (o *fakeOpener) Open(_ context.Context, domain realtime.Domain) (realtime.Channel, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	ch := newFakeChannel(domain)
	o.channels = append(o.channels, ch)
	return ch, nil
}

func (o *fakeOpener) last() *fakeChannel {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.channels[len(o.channels)-1]
}

// fakeChatAPI in-memory chat backend with call counters
type fakeChatAPI struct {
	mu            sync.Mutex
	conversations []model.Conversation
	messages      map[string][]model.Message // newest first
	created       int
	listCalls     int
	messageCalls  map[string]int
	sent          []model.SendMessageRequest
	sendErr       error
	listErr       error
	listGate      chan struct{}
	createBlank   bool // create answers without an id, like {"code":0,"data":null}
}

func newFakeChatAPI(convs ...string) *fakeChatAPI {
	f := &fakeChatAPI{messages: make(map[string][]model.Message), messageCalls: make(map[string]int)}
	for _, id := range convs {
		f.conversations = append(f.conversations, model.Conversation{ID: id})
	}
	return f
}

func (f *fakeChatAPI) ListConversations(context.Context, int) ([]model.Conversation, error) {
	f.mu.Lock()
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Conversation(nil), f.conversations...), nil
}

func (f *fakeChatAPI) ListMessages(_ context.Context, id string, page, pageSize int) (*model.Page[model.Message], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageCalls[id]++
	all := f.messages[id]
	total := (len(all) + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return &model.Page[model.Message]{
		Data:     append([]model.Message(nil), all[start:end]...),
		Paginate: model.Paginate{Page: page, TotalPage: total},
	}, nil
}

func (f *fakeChatAPI) SendMessage(_ context.Context, req model.SendMessageRequest) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, req)
	msg := model.Message{ID: "m-" + req.ClientMsgID, ConversationID: req.ConversationID, Content: req.Content}
	f.messages[req.ConversationID] = append([]model.Message{msg}, f.messages[req.ConversationID]...)
	return &msg, nil
}

func (f *fakeChatAPI) CreateConversation(context.Context) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.createBlank {
		return &model.Conversation{}, nil
	}
	conv := model.Conversation{ID: "conv-new"}
	f.conversations = append(f.conversations, conv)
	return &conv, nil
}

func (f *fakeChatAPI) counts() (list, created int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.created
}

func (f *fakeChatAPI) messageFetches(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messageCalls[id]
}

type fakeNotificationAPI struct {
	mu         sync.Mutex
	items      []model.Notification
	unread     int
	listCalls  int
	countCalls int
	marked     []string
	markErr    error
}

func (f *fakeNotificationAPI) ListNotifications(_ context.Context, page, pageSize int) (*model.Page[model.Notification], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return &model.Page[model.Notification]{
		Data:     append([]model.Notification(nil), f.items...),
		Paginate: model.Paginate{Page: page, TotalPage: 1},
	}, nil
}

func (f *fakeNotificationAPI) MarkNotificationRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	for i := range f.items {
		if f.items[i].ID == id && !f.items[i].IsRead {
			f.items[i].IsRead = true
			f.unread--
		}
	}
	return nil
}

func (f *fakeNotificationAPI) MarkAllNotificationsRead(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, "*")
	for i := range f.items {
		f.items[i].IsRead = true
	}
	f.unread = 0
	return nil
}

func (f *fakeNotificationAPI) GetUnreadNotificationCount(context.Context) (*model.UnreadCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	return &model.UnreadCount{TotalUnread: f.unread}, nil
}

type fakeOrderAPI struct {
	calls int
	err   error
}

func (f *fakeOrderAPI) UpdateOrderStatus(_ context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.Order{ID: id, Status: status}, nil
}
