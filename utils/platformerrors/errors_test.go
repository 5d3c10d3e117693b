package platformerrors

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestAsErrorNil(t *testing.T) {
	if err := AsError(context.Background(), LayerDomain, nil, "ignored"); err != nil {
		t.Fatalf("expected nil for a nil cause, got %v", err)
	}
}

func TestAsErrorWrapsPlainError(t *testing.T) {
	cause := errors.New("connection refused")
	err := AsError(context.Background(), LayerInfrastructure, cause, "bridge request failed")

	if err.Type != ErrorTypeInternal {
		t.Fatalf("expected type %s, got %s", ErrorTypeInternal, err.Type)
	}
	if err.Layer != LayerInfrastructure {
		t.Fatalf("expected layer %s, got %s", LayerInfrastructure, err.Layer)
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error must unwrap to the cause")
	}
}

func TestAsErrorPreservesPlatformType(t *testing.T) {
	inner := NewError(context.Background(), LayerInfrastructure, ErrorTypeQueryFailed,
		"bridge unreachable", nil, "7d4e2b90-11aa-4c68-9c03-8a6f3e1d7b25")
	wrapped := AsError(context.Background(), LayerDomain, inner, "listing conversations failed")

	if wrapped.Type != ErrorTypeQueryFailed {
		t.Fatalf("expected preserved type %s, got %s", ErrorTypeQueryFailed, wrapped.Type)
	}
	if wrapped.UUID != inner.UUID {
		t.Fatalf("expected preserved uuid %s, got %s", inner.UUID, wrapped.UUID)
	}
	if !strings.Contains(wrapped.Message, "bridge unreachable") {
		t.Fatalf("expected the inner message to survive, got %q", wrapped.Message)
	}
	if !IsErrorType(wrapped, ErrorTypeQueryFailed) {
		t.Fatal("IsErrorType must see through the wrap")
	}
}

func TestLogErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	err := NewError(context.Background(), LayerInfrastructure, ErrorTypeSendFailed,
		"delivery rejected", errors.New("recipient not registered"), "93f2a8c1-5b6d-4e07-a1f3-2c8d9e0b4a67")
	LogError(logger, err)

	out := buf.String()
	for _, want := range []string{
		`"error_type":"SEND_FAILED"`,
		`"error_uuid":"93f2a8c1-5b6d-4e07-a1f3-2c8d9e0b4a67"`,
		`"layer":"infrastructure"`,
		"delivery rejected",
		"recipient not registered",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s: %s", want, out)
		}
	}
}

func TestLogErrorNil(t *testing.T) {
	var buf bytes.Buffer
	LogError(zerolog.New(&buf), nil)
	if buf.Len() != 0 {
		t.Fatalf("nil error must not log, got %s", buf.String())
	}
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeInvalidArguments, http.StatusBadRequest},
		{ErrorTypeInvalidRecipient, http.StatusBadRequest},
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeUnauthorized, http.StatusUnauthorized},
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeSendFailed, http.StatusBadGateway},
		{ErrorTypeQueryFailed, http.StatusBadGateway},
		{ErrorTypeExternal, http.StatusBadGateway},
		{ErrorTypeInternal, http.StatusInternalServerError},
		{ErrorType("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := ErrorTypeToHTTPStatus(tt.errorType); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.errorType, tt.want, got)
		}
	}
}
