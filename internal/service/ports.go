package service

import (
	"context"

	"sudooom.storefront/internal/model"
	"sudooom.storefront/internal/realtime"
)

// ChannelOpener acquires a realtime connection for one domain. The caller
// owns the returned channel and must Close it.
type ChannelOpener interface {
	Open(ctx context.Context, domain realtime.Domain) (realtime.Channel, error)
}

// ChatAPI chat endpoints of one scope
type ChatAPI interface {
	ListConversations(ctx context.Context, pageSize int) ([]model.Conversation, error)
	ListMessages(ctx context.Context, conversationID string, page, pageSize int) (*model.Page[model.Message], error)
	SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.Message, error)
	CreateConversation(ctx context.Context) (*model.Conversation, error)
}

// NotificationAPI notification endpoints
type NotificationAPI interface {
	ListNotifications(ctx context.Context, page, pageSize int) (*model.Page[model.Notification], error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	GetUnreadNotificationCount(ctx context.Context) (*model.UnreadCount, error)
}

// OrderAPI order endpoints
type OrderAPI interface {
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
}
