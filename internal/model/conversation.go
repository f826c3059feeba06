package model

// Participant sender/participant profile, all fields optional on the wire
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// DisplayName picks the best label available.
func (p *Participant) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// Conversation conversation list entry
type Conversation struct {
	ID            string        `json:"id"`
	Participants  []Participant `json:"participants,omitempty"`
	LatestMessage *Message      `json:"latestMessage,omitempty"` // list preview
	CreatedAt     Timestamp     `json:"createdAt"`
	UpdatedAt     Timestamp     `json:"updatedAt"`
}
