package querycache

import "strings"

// Key colon separated query key, e.g. "chat:admin:messages:42"
type Key string

const sep = ":"

// NewKey joins parts into a Key.
func NewKey(parts ...string) Key {
	return Key(strings.Join(parts, sep))
}

// HasPrefix reports whether k is prefix or lies under it, segment-wise.
// "chat:messages" matches "chat:messages:1" but not "chat:messagesX".
func (k Key) HasPrefix(prefix Key) bool {
	if prefix == "" || k == prefix {
		return true
	}
	return strings.HasPrefix(string(k), string(prefix)+sep)
}

func (k Key) String() string { return string(k) }

// familyDepth segments that name a query family; deeper ones are ids
const familyDepth = 3

// Family k without its id segments, e.g. "chat:admin:messages" for any
// MessagesKey of the admin scope. Used as a bounded metrics label.
func (k Key) Family() Key {
	parts := strings.SplitN(string(k), sep, familyDepth+1)
	if len(parts) <= familyDepth {
		return k
	}
	return NewKey(parts[:familyDepth]...)
}

// ConversationsKey conversation list of a chat scope ("user" or "admin").
func ConversationsKey(scope string) Key {
	return NewKey("chat", scope, "conversations")
}

// MessagesKey message history of one conversation.
func MessagesKey(scope, conversationID string) Key {
	return NewKey("chat", scope, "messages", conversationID)
}

// AllMessagesKey every message history of a scope.
func AllMessagesKey(scope string) Key {
	return NewKey("chat", scope, "messages")
}

// NotificationsKey notification list.
func NotificationsKey() Key {
	return NewKey("notifications", "list")
}

// UnreadCountKey unread notification counter.
func UnreadCountKey() Key {
	return NewKey("notifications", "unread")
}

// OrdersKey order lists.
func OrdersKey() Key {
	return NewKey("orders")
}
