package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"imessage-mcp/internal/domain/messaging"
	"imessage-mcp/internal/infrastructure/metrics"
	"imessage-mcp/utils/mcp"
	"imessage-mcp/utils/platformerrors"
)

const (
	toolSendMessage            = "send_message"
	toolReadMessages           = "read_messages"
	toolGetConversations       = "get_conversations"
	toolGetConversationDetails = "get_conversation_details"

	timestampLayout = "2006-01-02 15:04:05"
)

// SendMessageArgs defines the arguments for the send_message tool
type SendMessageArgs struct {
	Recipient string  `json:"recipient" jsonschema:"required,description=Phone number in E.164 format (+15551234567) or email address of the recipient"`
	Text      string  `json:"text" jsonschema:"required,description=Message text to send"`
	ChatID    *string `json:"chatId,omitempty" jsonschema:"description=Optional chat GUID to send into an existing conversation"`
}

// ReadMessagesArgs defines the arguments for the read_messages tool
type ReadMessagesArgs struct {
	ChatID     *string `json:"chatId,omitempty" jsonschema:"description=Optional chat GUID to read from"`
	Recipient  *string `json:"recipient,omitempty" jsonschema:"description=Optional handle to filter messages by"`
	Limit      *int    `json:"limit,omitempty" jsonschema:"description=Maximum number of messages to return (default: 50)"`
	UnreadOnly *bool   `json:"unreadOnly,omitempty" jsonschema:"description=Only return unread messages (default: false)"`
}

// GetConversationsArgs defines the arguments for the get_conversations tool
type GetConversationsArgs struct {
	Limit  *int `json:"limit,omitempty" jsonschema:"description=Maximum number of conversations to return (default: 50)"`
	Offset *int `json:"offset,omitempty" jsonschema:"description=Number of conversations to skip"`
}

// GetConversationDetailsArgs defines the arguments for the get_conversation_details tool
type GetConversationDetailsArgs struct {
	ChatID string `json:"chatId" jsonschema:"required,description=Chat GUID of the conversation"`
}

// MessagingMCP handles MCP tool registration for the messaging operations.
type MessagingMCP struct {
	messagingService *messaging.MessagingService
}

// NewMessagingMCP creates a new messaging MCP handler
func NewMessagingMCP(messagingService *messaging.MessagingService) *MessagingMCP {
	return &MessagingMCP{
		messagingService: messagingService,
	}
}

// RegisterTools registers the four messaging tools with the MCP server. The
// tool set is static; nothing is added or removed at runtime.
func (m *MessagingMCP) RegisterTools(server *mcpserver.MCPServer) {
	server.AddTool(
		mcpgo.NewTool(toolSendMessage,
			mcp.ReflectToMCPOptions(
				"Send an iMessage to a phone number or email handle. Optionally target an existing chat GUID.",
				SendMessageArgs{},
			)...,
		),
		m.handleSendMessage,
	)

	server.AddTool(
		mcpgo.NewTool(toolReadMessages,
			mcp.ReflectToMCPOptions(
				"Read recent messages with optional chat/recipient/unread filters.",
				ReadMessagesArgs{},
			)...,
		),
		m.handleReadMessages,
	)

	server.AddTool(
		mcpgo.NewTool(toolGetConversations,
			mcp.ReflectToMCPOptions(
				"List recent conversations with participants and unread counts. Derived from a bounded recent-message window.",
				GetConversationsArgs{},
			)...,
		),
		m.handleGetConversations,
	)

	server.AddTool(
		mcpgo.NewTool(toolGetConversationDetails,
			mcp.ReflectToMCPOptions(
				"Get participants and message stats for a single conversation by chat GUID.",
				GetConversationDetailsArgs{},
			)...,
		),
		m.handleGetConversationDetails,
	)
}

func (m *MessagingMCP) handleSendMessage(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveToolDuration(toolSendMessage, time.Since(start).Seconds()) }()

	recipient, err := req.RequireString("recipient")
	if err != nil || strings.TrimSpace(recipient) == "" {
		return m.invalidArgs(toolSendMessage, "recipient must be a non-empty string", "recipient, text"), nil
	}
	text, err := req.RequireString("text")
	if err != nil || strings.TrimSpace(text) == "" {
		return m.invalidArgs(toolSendMessage, "text must be a non-empty string", "recipient, text"), nil
	}
	chatID := req.GetString("chatId", "")

	conf, err := m.messagingService.Send(ctx, messaging.SendRequest{
		Recipient: recipient,
		Text:      text,
		ChatGUID:  chatID,
	})
	if err != nil {
		logToolError(toolSendMessage, err)
		metrics.RecordToolCall(toolSendMessage, "error")
		return errorResult(err), nil
	}

	metrics.RecordToolCall(toolSendMessage, "success")
	return mcpgo.NewToolResultText(fmt.Sprintf("Message sent successfully to %s", conf.Recipient)), nil
}

func (m *MessagingMCP) handleReadMessages(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveToolDuration(toolReadMessages, time.Since(start).Seconds()) }()

	args := req.GetArguments()
	chatID, err := optionalString(args, "chatId")
	if err != nil {
		return m.invalidArgs(toolReadMessages, err.Error(), ""), nil
	}
	recipient, err := optionalString(args, "recipient")
	if err != nil {
		return m.invalidArgs(toolReadMessages, err.Error(), ""), nil
	}
	limit, err := optionalInt(args, "limit", messaging.DefaultLimit)
	if err != nil {
		return m.invalidArgs(toolReadMessages, err.Error(), ""), nil
	}
	unreadOnly, err := optionalBool(args, "unreadOnly")
	if err != nil {
		return m.invalidArgs(toolReadMessages, err.Error(), ""), nil
	}

	msgs, err := m.messagingService.ReadMessages(ctx, messaging.MessageFilter{
		ChatGUID:   chatID,
		Recipient:  recipient,
		Limit:      limit,
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		logToolError(toolReadMessages, err)
		metrics.RecordToolCall(toolReadMessages, "error")
		return errorResult(err), nil
	}

	metrics.RecordToolCall(toolReadMessages, "success")
	if len(msgs) == 0 {
		return mcpgo.NewToolResultText("No messages found"), nil
	}

	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, formatMessageLine(msg))
	}
	return mcpgo.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (m *MessagingMCP) handleGetConversations(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveToolDuration(toolGetConversations, time.Since(start).Seconds()) }()

	args := req.GetArguments()
	limit, err := optionalInt(args, "limit", messaging.DefaultLimit)
	if err != nil {
		return m.invalidArgs(toolGetConversations, err.Error(), ""), nil
	}
	offset, err := optionalInt(args, "offset", 0)
	if err != nil {
		return m.invalidArgs(toolGetConversations, err.Error(), ""), nil
	}

	summaries, err := m.messagingService.ListConversations(ctx, limit, offset)
	if err != nil {
		logToolError(toolGetConversations, err)
		metrics.RecordToolCall(toolGetConversations, "error")
		return errorResult(err), nil
	}

	metrics.RecordToolCall(toolGetConversations, "success")
	if len(summaries) == 0 {
		return mcpgo.NewToolResultText("No conversations found"), nil
	}

	blocks := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		blocks = append(blocks, formatConversationBlock(summary))
	}
	return mcpgo.NewToolResultText(strings.Join(blocks, "\n---\n")), nil
}

func (m *MessagingMCP) handleGetConversationDetails(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveToolDuration(toolGetConversationDetails, time.Since(start).Seconds()) }()

	chatID, err := req.RequireString("chatId")
	if err != nil || strings.TrimSpace(chatID) == "" {
		return m.invalidArgs(toolGetConversationDetails, "chatId must be a non-empty string", "chatId"), nil
	}

	detail, err := m.messagingService.ConversationDetail(ctx, chatID)
	if errors.Is(err, messaging.ErrConversationNotFound) {
		// Sentinel, not a failure: an empty conversation reads as a plain
		// result so callers need no error handling to see it.
		metrics.RecordToolCall(toolGetConversationDetails, "not_found")
		return mcpgo.NewToolResultText(fmt.Sprintf("No messages found for chat ID: %s", chatID)), nil
	}
	if err != nil {
		logToolError(toolGetConversationDetails, err)
		metrics.RecordToolCall(toolGetConversationDetails, "error")
		return errorResult(err), nil
	}

	metrics.RecordToolCall(toolGetConversationDetails, "success")
	return mcpgo.NewToolResultText(formatDetailBlock(detail)), nil
}

func (m *MessagingMCP) invalidArgs(tool, detail, required string) *mcpgo.CallToolResult {
	metrics.RecordToolCall(tool, "invalid_arguments")
	if required != "" {
		return mcpgo.NewToolResultError(fmt.Sprintf("Error: invalid arguments: %s. Required: %s", detail, required))
	}
	return mcpgo.NewToolResultError(fmt.Sprintf("Error: invalid arguments: %s", detail))
}

// logToolError keeps the structured platform-error record when one is
// available. Plain errors fall back to a generic failure log.
func logToolError(tool string, err error) {
	logger := log.With().Str("tool", tool).Logger()
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		platformerrors.LogError(logger, platformErr)
		return
	}
	logger.Error().Err(err).Msg("tool call failed")
}

// errorResult converts any gateway or domain failure into an error-flagged
// text result. Failures never escape to the transport as protocol faults.
func errorResult(err error) *mcpgo.CallToolResult {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		return mcpgo.NewToolResultError("Error: " + platformErr.Reason())
	}
	return mcpgo.NewToolResultError("Error: " + err.Error())
}

func formatMessageLine(msg messaging.Message) string {
	sender := msg.Sender
	if msg.IsFromMe {
		sender = "Me"
	} else if sender == "" {
		sender = "Unknown"
	}
	return fmt.Sprintf("[%s] %s: %s", formatTimestamp(msg.Timestamp), sender, textOrPlaceholder(msg.Text))
}

func formatConversationBlock(summary *messaging.ConversationSummary) string {
	lines := []string{
		"Chat ID: " + summary.ChatGUID,
		"Participants: " + participantsOrPlaceholder(summary.Participants),
		"Last Message: " + textOrPlaceholder(summary.LastMessage),
		"Last Message Time: " + formatTimestamp(summary.LastTimestamp),
		fmt.Sprintf("Unread Messages: %d", summary.UnreadCount),
	}
	return strings.Join(lines, "\n")
}

func formatDetailBlock(detail *messaging.ConversationDetail) string {
	conversationType := "Individual"
	if detail.IsGroupChat {
		conversationType = "Group"
	}
	lines := []string{
		"Chat ID: " + detail.ChatGUID,
		"Conversation Type: " + conversationType,
		"Participants: " + participantsOrPlaceholder(detail.Participants),
		fmt.Sprintf("Message Count: %d", detail.MessageCount),
		"Last Message: " + textOrPlaceholder(detail.LastMessage),
		"Last Message Time: " + formatTimestamp(detail.LastTimestamp),
		fmt.Sprintf("Unread Messages: %d", detail.UnreadCount),
	}
	return strings.Join(lines, "\n")
}

func textOrPlaceholder(text string) string {
	if strings.TrimSpace(text) == "" {
		return "(no text)"
	}
	return text
}

func participantsOrPlaceholder(participants []string) string {
	if len(participants) == 0 {
		return "Unknown"
	}
	return strings.Join(participants, ", ")
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "Unknown"
	}
	return ts.UTC().Format(timestampLayout)
}

func optionalString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	str, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return str, nil
}

func optionalInt(args map[string]any, key string, fallback int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

func optionalBool(args map[string]any, key string) (bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return b, nil
}
