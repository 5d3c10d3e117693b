package messaging

import (
	"context"
	"errors"
)

// DefaultLimit applies when a tool call omits limit.
const DefaultLimit = 50

// conversationWindowMultiplier bounds the snapshot a conversation listing is
// derived from: limit*10 most recent records. Old low-traffic conversations
// outside that window are omitted; this is a known, accepted incompleteness
// since the bridge exposes no conversations endpoint.
const conversationWindowMultiplier = 10

// ErrConversationNotFound marks a chat GUID matching no record in the
// snapshot. It is a sentinel, surfaced to callers as a plain "not found"
// result rather than an error-flagged one.
var ErrConversationNotFound = errors.New("conversation not found")

// BridgeClient defines the iMessage bridge operations required by the domain
// layer. The bridge owns storage, delivery and retry; this layer only shapes
// requests and aggregates results.
type BridgeClient interface {
	SendMessage(ctx context.Context, req SendRequest) (*SendConfirmation, error)
	QueryMessages(ctx context.Context, filter MessageFilter) ([]Message, error)
	Close() error
}

// MessagingService orchestrates messaging MCP operations while remaining
// transport-agnostic. Every operation fetches a fresh snapshot from the
// bridge; nothing is cached between invocations.
type MessagingService struct {
	client BridgeClient
}

// NewMessagingService creates a new messaging service
func NewMessagingService(client BridgeClient) *MessagingService {
	return &MessagingService{
		client: client,
	}
}

// Send delivers a message through the bridge.
func (s *MessagingService) Send(ctx context.Context, req SendRequest) (*SendConfirmation, error) {
	return s.client.SendMessage(ctx, req)
}

// ReadMessages fetches a message snapshot matching the filter.
func (s *MessagingService) ReadMessages(ctx context.Context, filter MessageFilter) ([]Message, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}
	return s.client.QueryMessages(ctx, filter)
}

// ListConversations derives conversation summaries from a bounded
// recent-message window and returns at most limit of them, newest first.
func (s *MessagingService) ListConversations(ctx context.Context, limit, offset int) ([]*ConversationSummary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	msgs, err := s.client.QueryMessages(ctx, MessageFilter{Limit: limit * conversationWindowMultiplier})
	if err != nil {
		return nil, err
	}
	return ListConversations(msgs, limit, offset), nil
}

// ConversationDetail aggregates all snapshot records of a single chat GUID.
func (s *MessagingService) ConversationDetail(ctx context.Context, chatGUID string) (*ConversationDetail, error) {
	msgs, err := s.client.QueryMessages(ctx, MessageFilter{
		ChatGUID: chatGUID,
		Limit:    DefaultLimit * conversationWindowMultiplier,
	})
	if err != nil {
		return nil, err
	}

	detail, ok := BuildConversationDetail(msgs, chatGUID)
	if !ok {
		return nil, ErrConversationNotFound
	}
	return detail, nil
}
