package imessage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"imessage-mcp/internal/domain/messaging"
	"imessage-mcp/internal/infrastructure/metrics"
	"imessage-mcp/utils/platformerrors"
)

const (
	sendEndpoint     = "/api/v1/messages/send"
	messagesEndpoint = "/api/v1/messages"
)

// ClientConfig configures the bridge client.
type ClientConfig struct {
	BaseURL       string
	APIKey        string
	DefaultRegion string
	Timeout       time.Duration
}

// Client wraps the iMessage bridge REST API. The bridge owns the message
// store, delivery and retry; the client only shapes requests, normalizes the
// bridge's response variants and translates failures into platform errors.
type Client struct {
	httpClient    *resty.Client
	defaultRegion string
	closeOnce     sync.Once
}

var _ messaging.BridgeClient = (*Client)(nil)

// NewClient creates a new bridge client
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "imessage-mcp/1.0").
		SetLogger(restyLogger{})
	if cfg.APIKey != "" {
		client.SetHeader("X-API-KEY", cfg.APIKey)
	}

	region := cfg.DefaultRegion
	if region == "" {
		region = "US"
	}

	return &Client{
		httpClient:    client,
		defaultRegion: region,
	}
}

type sendBody struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
	ChatGUID  string `json:"chat_guid,omitempty"`
}

type sendResult struct {
	Success     bool   `json:"success"`
	MessageGUID string `json:"message_guid,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SendMessage normalizes the recipient, then hands the message to the bridge.
func (c *Client) SendMessage(ctx context.Context, req messaging.SendRequest) (*messaging.SendConfirmation, error) {
	recipient, err := c.ParseRecipient(req.Recipient)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeInvalidRecipient,
			fmt.Sprintf("invalid recipient %q", req.Recipient), err,
			"4f7b2a91-63de-4c05-9b8a-0ff1c2d7e6a3")
	}

	var result sendResult
	start := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendBody{
			Recipient: recipient,
			Text:      req.Text,
			ChatGUID:  req.ChatGUID,
		}).
		SetResult(&result).
		Post(sendEndpoint)
	metrics.ObserveBridgeLatency("send", time.Since(start).Seconds())

	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeSendFailed,
			"failed to deliver message via bridge", err,
			"b1c4e8d2-57aa-4e63-8c90-2a3f6d5e9b07")
	}
	if resp.IsError() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeSendFailed,
			fmt.Sprintf("bridge send error (status %d): %s", resp.StatusCode(), strings.TrimSpace(resp.String())), nil,
			"e9d3a6f1-84bb-4710-9d25-6c1e0b7a4f58")
	}
	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "bridge reported delivery failure"
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeSendFailed, reason, nil,
			"7a5c0d94-12ef-4b38-a6d1-8e2b9f3c5d60")
	}

	log.Debug().Str("recipient", recipient).Str("message_guid", result.MessageGUID).Msg("message handed to bridge")

	return &messaging.SendConfirmation{
		Recipient:   recipient,
		MessageGUID: result.MessageGUID,
	}, nil
}

// QueryMessages fetches a message snapshot matching the filter. The bridge
// returns either a bare array or a {"messages": [...]} wrapper depending on
// its version; both normalize into a plain ordered slice.
func (c *Client) QueryMessages(ctx context.Context, filter messaging.MessageFilter) ([]messaging.Message, error) {
	req := c.httpClient.R().SetContext(ctx)
	if filter.ChatGUID != "" {
		req.SetQueryParam("chat_guid", filter.ChatGUID)
	}
	if filter.Recipient != "" {
		req.SetQueryParam("recipient", filter.Recipient)
	}
	if filter.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(filter.Limit))
	}
	if filter.UnreadOnly {
		req.SetQueryParam("unread_only", "true")
	}

	start := time.Now()
	resp, err := req.Get(messagesEndpoint)
	metrics.ObserveBridgeLatency("query", time.Since(start).Seconds())

	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeQueryFailed,
			"failed to query messages via bridge", err,
			"c2f8b4a6-39dd-47e1-b05c-4d7e1a6f8b29")
	}
	if resp.IsError() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeQueryFailed,
			fmt.Sprintf("bridge query error (status %d): %s", resp.StatusCode(), strings.TrimSpace(resp.String())), nil,
			"a8e5d1c3-76fb-4092-8b3e-5f0c2d9a7e14")
	}

	msgs, err := normalizeMessagesPayload(resp.Body())
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeQueryFailed,
			"unexpected bridge response shape", err,
			"d4b9f2e7-15cc-48a0-9e61-3a8d5c0b2f76")
	}
	return msgs, nil
}

// Close releases the bridge connection. Idempotent; the application lifecycle
// calls it exactly once at shutdown.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.httpClient.GetClient().CloseIdleConnections()
		log.Debug().Msg("bridge client closed")
	})
	return nil
}

// ParseRecipient validates and normalizes a recipient handle: phone-shaped
// input becomes E.164 using the configured default region, email handles are
// lowercased. Deliverability stays the bridge's responsibility.
func (c *Client) ParseRecipient(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("recipient is empty")
	}

	if strings.Contains(trimmed, "@") {
		parts := strings.Split(trimmed, "@")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.ContainsAny(trimmed, " \t") {
			return "", fmt.Errorf("malformed email handle")
		}
		return strings.ToLower(trimmed), nil
	}

	num, err := phonenumbers.Parse(trimmed, c.defaultRegion)
	if err != nil {
		return "", fmt.Errorf("not a parseable phone number: %w", err)
	}
	// Possibility (length) check only: assigned-range validity is the
	// bridge's call, and it would reject reserved test numbers.
	if !phonenumbers.IsPossibleNumber(num) {
		return "", fmt.Errorf("not a possible phone number for region %s", c.defaultRegion)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// normalizeMessagesPayload accepts both bridge response shapes.
func normalizeMessagesPayload(body []byte) ([]messaging.Message, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var msgs []messaging.Message
	if err := json.Unmarshal(body, &msgs); err == nil {
		return msgs, nil
	}

	var wrapper struct {
		Messages []messaging.Message `json:"messages"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Messages, nil
}

// restyLogger routes resty diagnostics through zerolog so bridge chatter
// follows the configured sink instead of writing to stdout.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}
