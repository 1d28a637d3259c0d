package instrumentation

import (
	"strings"
	"testing"
)

func TestHashSessionID(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
	}{
		{"simple id", "session-1"},
		{"id embedding an email", "user@example.com"},
		{"long id", strings.Repeat("x", 256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HashSessionID(tt.sessionID)
			if got == "" || got == "unknown" {
				t.Fatalf("HashSessionID(%q) = %q, want a hash", tt.sessionID, got)
			}
			if strings.Contains(got, tt.sessionID) {
				t.Errorf("HashSessionID(%q) = %q contains the raw identifier", tt.sessionID, got)
			}
			if !strings.HasPrefix(got, "session:") {
				t.Errorf("HashSessionID(%q) = %q, want session: prefix", tt.sessionID, got)
			}
		})
	}
}

func TestHashSessionID_Empty(t *testing.T) {
	if got := HashSessionID(""); got != "unknown" {
		t.Errorf("HashSessionID(\"\") = %q, want %q", got, "unknown")
	}
}

func TestHashSessionID_Stable(t *testing.T) {
	a := HashSessionID("session-1")
	b := HashSessionID("session-1")
	if a != b {
		t.Errorf("HashSessionID not stable: %q != %q", a, b)
	}
	if HashSessionID("session-2") == a {
		t.Error("different session IDs produced the same hash")
	}
}
