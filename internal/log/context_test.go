// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := RequestIDFromContext(ctx); got != "" {
		t.Fatalf("expected empty request id on fresh context, got %q", got)
	}

	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithSessionID(ctx, "sess-9")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("request id = %q, want req-1", got)
	}
	if got := SessionIDFromContext(ctx); got != "sess-9" {
		t.Errorf("session id = %q, want sess-9", got)
	}
}

func TestContextNilSafety(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	if got := RequestIDFromContext(nil); got != "" {
		t.Errorf("expected empty request id from nil context, got %q", got)
	}
	//nolint:staticcheck
	ctx := ContextWithSessionID(nil, "s")
	if got := SessionIDFromContext(ctx); got != "s" {
		t.Errorf("session id = %q, want s", got)
	}
}
