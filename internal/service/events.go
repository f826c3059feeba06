package service

import (
	"strings"

	"github.com/tidwall/gjson"

	"sudooom.storefront/internal/model"
	"sudooom.storefront/internal/notify"
)

// GenericSender label used when a message carries no sender profile
const GenericSender = "Someone"

const defaultNotificationTitle = "New notification"

// messageEvent what the handlers need from a "new message" payload. Parsing
// never fails; missing fields come back empty.
type messageEvent struct {
	ID             string
	ConversationID string
	SenderID       string
	Sender         string
	Content        string
	CreatedAt      model.Timestamp
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func parseMessageEvent(data []byte) messageEvent {
	if !gjson.ValidBytes(data) {
		return messageEvent{}
	}
	r := gjson.ParseBytes(data)
	// some servers wrap the message: {"message": {...}}
	if m := r.Get("message"); m.IsObject() {
		r = m
	}

	ev := messageEvent{
		ID:             firstString(r, "id", "_id"),
		ConversationID: firstString(r, "conversationId", "conversation_id", "conversation.id"),
		SenderID:       firstString(r, "senderId", "sender_id", "sender.id"),
		Sender:         firstString(r, "sender.name", "sender.email", "senderName", "user.name", "user.email"),
		Content:        r.Get("content").String(),
		CreatedAt:      model.NewTimestamp(model.ParseTime(firstString(r, "createdAt", "created_at"))),
	}
	if ev.Sender == "" {
		ev.Sender = GenericSender
	}
	return ev
}

// notificationEvent payload {title, content, type?, meta?: {orderId, type}}
type notificationEvent struct {
	Title   string
	Content string
	Type    model.NotificationType
	OrderID string
}

func parseNotificationEvent(data []byte) notificationEvent {
	ev := notificationEvent{Title: defaultNotificationTitle, Type: model.NotificationInfo}
	if !gjson.ValidBytes(data) {
		return ev
	}
	r := gjson.ParseBytes(data)

	if t := firstString(r, "title"); t != "" {
		ev.Title = t
	}
	ev.Content = firstString(r, "content", "message")
	ev.OrderID = firstString(r, "meta.orderId", "meta.order_id")

	ev.Type = notificationType(r)
	return ev
}

// notificationType the severity lives in meta.type; older payloads put it at
// the top level. Values that are not a severity (e.g. "order") are skipped.
func notificationType(r gjson.Result) model.NotificationType {
	for _, path := range []string{"meta.type", "type"} {
		switch t := model.NotificationType(firstString(r, path)); t {
		case model.NotificationSuccess, model.NotificationWarning, model.NotificationInfo:
			return t
		}
	}
	return model.NotificationInfo
}

func (ev notificationEvent) level() notify.Level {
	switch ev.Type {
	case model.NotificationSuccess:
		return notify.LevelSuccess
	case model.NotificationWarning:
		return notify.LevelWarning
	default:
		return notify.LevelInfo
	}
}

// newConversationLabel best-effort name of whoever opened the conversation
func newConversationLabel(data []byte) string {
	if !gjson.ValidBytes(data) {
		return ""
	}
	return firstString(gjson.ParseBytes(data), "participants.0.name", "participants.0.email", "user.name", "user.email", "name")
}
