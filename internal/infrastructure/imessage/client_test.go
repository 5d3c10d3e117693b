package imessage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"imessage-mcp/internal/domain/messaging"
	"imessage-mcp/utils/platformerrors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(ClientConfig{
		BaseURL:       server.URL,
		DefaultRegion: "US",
		Timeout:       5 * time.Second,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

func TestParseRecipient(t *testing.T) {
	client := NewClient(ClientConfig{DefaultRegion: "US"})

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "e164 passthrough", input: "+15551234567", want: "+15551234567"},
		{name: "national number", input: "(555) 123-4567", want: "+15551234567"},
		{name: "email lowercased", input: "Friend@iCloud.com", want: "friend@icloud.com"},
		{name: "empty", input: "  ", wantErr: true},
		{name: "garbage", input: "not-a-handle", wantErr: true},
		{name: "malformed email", input: "@icloud.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.ParseRecipient(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSendMessageSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sendEndpoint {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "message_guid": "msg-1"}`))
	}))

	conf, err := client.SendMessage(context.Background(), messaging.SendRequest{
		Recipient: "+15551234567",
		Text:      "hi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Recipient != "+15551234567" {
		t.Errorf("expected normalized recipient, got %q", conf.Recipient)
	}
	if conf.MessageGUID != "msg-1" {
		t.Errorf("expected message guid from bridge, got %q", conf.MessageGUID)
	}
}

func TestSendMessageInvalidRecipient(t *testing.T) {
	client := NewClient(ClientConfig{DefaultRegion: "US"})

	_, err := client.SendMessage(context.Background(), messaging.SendRequest{
		Recipient: "bogus",
		Text:      "hi",
	})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeInvalidRecipient) {
		t.Fatalf("expected INVALID_RECIPIENT, got %v", err)
	}
}

func TestSendMessageBridgeFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "error": "recipient not registered"}`))
	}))

	_, err := client.SendMessage(context.Background(), messaging.SendRequest{
		Recipient: "+15551234567",
		Text:      "hi",
	})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeSendFailed) {
		t.Fatalf("expected SEND_FAILED, got %v", err)
	}
}

func TestQueryMessagesBareArray(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("expected limit=10, got %q", got)
		}
		if got := r.URL.Query().Get("unread_only"); got != "true" {
			t.Errorf("expected unread_only=true, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"text": "hello", "chat_guid": "chat-a", "date": "2024-03-01T12:00:00Z"}]`))
	}))

	msgs, err := client.QueryMessages(context.Background(), messaging.MessageFilter{
		Limit:      10,
		UnreadOnly: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "hello" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestQueryMessagesWrappedObject(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages": [{"text": "wrapped", "chat_guid": "chat-b", "date": "2024-03-01T12:00:00Z"}]}`))
	}))

	msgs, err := client.QueryMessages(context.Background(), messaging.MessageFilter{Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ChatGUID != "chat-b" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestQueryMessagesBridgeError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.QueryMessages(context.Background(), messaging.MessageFilter{Limit: 5})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeQueryFailed) {
		t.Fatalf("expected QUERY_FAILED, got %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	client := NewClient(ClientConfig{DefaultRegion: "US"})
	if err := client.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}
