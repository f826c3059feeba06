package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"sudooom.storefront/internal/model"
)

// Scope chat endpoints differ for end users and the admin console
type Scope string

const (
	ScopeUser  Scope = "/conversations"
	ScopeAdmin Scope = "/admin/conversations"
)

// ChatClient the chat endpoints of one scope.
type ChatClient struct {
	c     *Client
	scope Scope
}

// Chat returns the chat endpoints for scope.
func (c *Client) Chat(scope Scope) *ChatClient {
	return &ChatClient{c: c, scope: scope}
}

// Scope the endpoint prefix this client uses.
func (cc *ChatClient) Scope() Scope {
	return cc.scope
}

// ListConversations returns up to pageSize conversations, most recent first.
func (cc *ChatClient) ListConversations(ctx context.Context, pageSize int) ([]model.Conversation, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))

	var page model.Page[model.Conversation]
	if err := cc.c.do(ctx, http.MethodGet, string(cc.scope), q, nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// ListMessages returns one newest-first page of a conversation.
func (cc *ChatClient) ListMessages(ctx context.Context, conversationID string, page, pageSize int) (*model.Page[model.Message], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var out model.Page[model.Message]
	path := string(cc.scope) + "/" + url.PathEscape(conversationID) + "/messages"
	if err := cc.c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage posts a message to its conversation.
func (cc *ChatClient) SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.Message, error) {
	var msg model.Message
	path := string(cc.scope) + "/" + url.PathEscape(req.ConversationID) + "/messages"
	if err := cc.c.do(ctx, http.MethodPost, path, nil, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateConversation creates the end user's conversation with the shop.
func (cc *ChatClient) CreateConversation(ctx context.Context) (*model.Conversation, error) {
	var conv model.Conversation
	if err := cc.c.do(ctx, http.MethodPost, string(cc.scope), nil, struct{}{}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}
