package model

// NotificationType notification severity tag
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// NotificationMeta optional deep-link data
type NotificationMeta struct {
	OrderID string `json:"orderId,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Notification user notification
type Notification struct {
	ID        string            `json:"id"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	IsRead    bool              `json:"isRead"`
	Meta      *NotificationMeta `json:"meta,omitempty"`
	CreatedAt Timestamp         `json:"createdAt"`
}

// UnreadCount unread notification counter
type UnreadCount struct {
	TotalUnread int `json:"totalUnread"`
}
