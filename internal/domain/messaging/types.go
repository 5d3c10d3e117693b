package messaging

import "time"

// Message is a single message record as returned by the iMessage bridge.
// Records are immutable once retrieved and live only for the duration of a
// single tool invocation.
type Message struct {
	GUID        string    `json:"guid,omitempty"`
	Text        string    `json:"text"`
	Sender      string    `json:"handle,omitempty"`
	Timestamp   time.Time `json:"date"`
	IsFromMe    bool      `json:"is_from_me"`
	ChatGUID    string    `json:"chat_guid"`
	IsRead      bool      `json:"is_read"`
	IsGroupChat bool      `json:"is_group_chat"`
}

// MessageFilter narrows a message query before it is handed to the bridge.
type MessageFilter struct {
	ChatGUID   string
	Recipient  string
	Limit      int
	UnreadOnly bool
}

// SendRequest describes an outgoing message.
type SendRequest struct {
	Recipient string
	Text      string
	ChatGUID  string
}

// SendConfirmation reports a successful delivery handoff. Recipient carries
// the normalized form actually used for delivery.
type SendConfirmation struct {
	Recipient   string
	MessageGUID string
}

// ConversationSummary is derived from a message snapshot, never persisted.
// Participants holds non-local handles in first-seen order; UnreadCount only
// counts unread messages from others.
type ConversationSummary struct {
	ChatGUID      string
	LastMessage   string
	LastTimestamp time.Time
	Participants  []string
	UnreadCount   int
}

// ConversationDetail extends a summary with the total record count of the
// snapshot subset and the group/1-on-1 classification.
type ConversationDetail struct {
	ConversationSummary
	MessageCount int
	IsGroupChat  bool
}
