package model

// Message chat message
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId"`
	SenderID       string       `json:"senderId"`
	Sender         *Participant `json:"sender,omitempty"`
	Content        string       `json:"content"`
	CreatedAt      Timestamp    `json:"createdAt"`
}

// SendMessageRequest body of the send call
type SendMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	ClientMsgID    string `json:"clientMsgId,omitempty"`
}
