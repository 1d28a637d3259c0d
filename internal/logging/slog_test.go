package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestWithOperation(t *testing.T) {
	logger := slog.Default()
	result := WithOperation(logger, "test_operation")
	if result == nil {
		t.Error("WithOperation returned nil")
	}
}

func TestWithService(t *testing.T) {
	logger := slog.Default()
	result := WithService(logger, "gmail")
	if result == nil {
		t.Error("WithService returned nil")
	}
}

func TestWithTool(t *testing.T) {
	logger := slog.Default()
	result := WithTool(logger, "gmail_list_emails")
	if result == nil {
		t.Error("WithTool returned nil")
	}
}

func TestOperationAttr(t *testing.T) {
	attr := Operation("test_op")
	if attr.Key != KeyOperation {
		t.Errorf("Operation key = %q, want %q", attr.Key, KeyOperation)
	}
	if attr.Value.String() != "test_op" {
		t.Errorf("Operation value = %q, want %q", attr.Value.String(), "test_op")
	}
}

func TestStatusAttr(t *testing.T) {
	attr := Status(StatusSuccess)
	if attr.Key != KeyStatus {
		t.Errorf("Status key = %q, want %q", attr.Key, KeyStatus)
	}
	if attr.Value.String() != "success" {
		t.Errorf("Status value = %q, want %q", attr.Value.String(), "success")
	}
}

func TestScopeListAttr(t *testing.T) {
	attr := ScopeList([]string{"a", "b"})
	if attr.Value.String() != "a b" {
		t.Errorf("ScopeList value = %q, want %q", attr.Value.String(), "a b")
	}
}

func TestErr(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		attr := Err(nil)
		// Should return an empty group that gets omitted
		if attr.Key != "" {
			t.Errorf("Err(nil) key = %q, want empty", attr.Key)
		}
	})

	t.Run("non-nil error", func(t *testing.T) {
		attr := Err(errors.New("boom"))
		if attr.Key != KeyError {
			t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
		}
		if attr.Value.String() != "boom" {
			t.Errorf("Err value = %q, want %q", attr.Value.String(), "boom")
		}
	})
}

func TestAnonymizeSessionID(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		wantEmpty bool
	}{
		{"empty session id", "", true},
		{"normal session id", "s1", false},
		{"long session id", strings.Repeat("x", 256), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeSessionID(tt.sessionID)
			if tt.wantEmpty {
				if got != "" {
					t.Errorf("AnonymizeSessionID() = %q, want empty", got)
				}
				return
			}
			if !strings.HasPrefix(got, "session:") {
				t.Errorf("AnonymizeSessionID() = %q, want session: prefix", got)
			}
			if strings.Contains(got, tt.sessionID) {
				t.Error("AnonymizeSessionID() should not contain the raw session id")
			}
		})
	}
}

func TestAnonymizeSessionIDStable(t *testing.T) {
	a := AnonymizeSessionID("session-1")
	b := AnonymizeSessionID("session-1")
	if a != b {
		t.Errorf("AnonymizeSessionID() not stable: %q != %q", a, b)
	}
	c := AnonymizeSessionID("session-2")
	if a == c {
		t.Error("AnonymizeSessionID() should differ for different session ids")
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"empty token", "", "<empty>"},
		{"short token", "abc", "[token:3 chars]"},
		{"long token", strings.Repeat("t", 64), "[token:64 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.token); got != tt.want {
				t.Errorf("SanitizeToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
