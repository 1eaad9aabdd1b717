package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"unitcam/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "ocrapi", "submit", "post failed", base)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ocrapi", "submit", "post failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassify(t *testing.T) {
	serverErr := &services.ServerError{Operation: "ocr", Message: "no pairs found"}
	tests := []struct {
		name string
		err  error
		want services.Kind
	}{
		{"nil", nil, services.KindNone},
		{"device", services.Wrap(services.ErrDeviceUnavailable, "camera", "acquire", "", nil), services.KindDeviceUnavailable},
		{"transport", services.Wrap(services.ErrTransport, "ocrapi", "submit", "", errors.New("refused")), services.KindTransport},
		{"server", fmt.Errorf("submit: %w", serverErr), services.KindServer},
		{"empty", services.ErrEmptyResult, services.KindEmptyResult},
		{"fetch wraps server", services.Wrap(services.ErrFetch, "analytics", "poll", "", serverErr), services.KindFetch},
		{"other", errors.New("mystery"), services.KindOther},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRetryableKinds(t *testing.T) {
	for _, kind := range []services.Kind{services.KindTransport, services.KindServer, services.KindEmptyResult} {
		if !kind.Retryable() {
			t.Fatalf("expected %s to be retryable", kind)
		}
	}
	for _, kind := range []services.Kind{services.KindDeviceUnavailable, services.KindFetch, services.KindOther, services.KindNone} {
		if kind.Retryable() {
			t.Fatalf("expected %s to be terminal", kind)
		}
	}
}

func TestMessagePrefersServerText(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &services.ServerError{Operation: "ocr", Message: "bad base64"})
	if got := services.Message(err); got != "bad base64" {
		t.Fatalf("unexpected message %q", got)
	}
	plain := errors.New("dial tcp: connection refused")
	if got := services.Message(plain); got != plain.Error() {
		t.Fatalf("unexpected message %q", got)
	}
}
