package instrumentation

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestToolInvocation_Complete(t *testing.T) {
	ti := NewToolInvocation("gmail_list_emails")
	if ti.Tool != "gmail_list_emails" {
		t.Errorf("Tool = %q, want %q", ti.Tool, "gmail_list_emails")
	}
	if ti.StartTime.IsZero() {
		t.Error("StartTime not set")
	}

	time.Sleep(time.Millisecond)
	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("expected Success after CompleteSuccess")
	}
	if ti.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", ti.Duration)
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusSuccess)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation("calendar_delete_event").
		WithSession("session-1").
		WithService(ServiceCalendar, OperationDelete)

	ti.CompleteWithError(errors.New("event not found"))

	if ti.Success {
		t.Error("expected Success to be false")
	}
	if ti.Error != "event not found" {
		t.Errorf("Error = %q, want %q", ti.Error, "event not found")
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusError)
	}
	if ti.ServiceName != ServiceCalendar || ti.Operation != OperationDelete {
		t.Errorf("service/operation = %q/%q, want calendar/delete", ti.ServiceName, ti.Operation)
	}
}

func TestToolInvocation_LogAttrsHashesSession(t *testing.T) {
	ti := NewToolInvocation("gmail_get_email").WithSession("user@example.com-session")
	ti.CompleteSuccess()

	for _, attr := range ti.LogAttrs() {
		if attr.Key == "session_id" {
			t.Error("LogAttrs() leaked the raw session identifier")
		}
		if attr.Key == "session_hash" {
			if strings.Contains(attr.Value.String(), "user@example.com") {
				t.Error("session hash contains the raw identifier")
			}
		}
	}
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLogger(logger)

	ti := NewToolInvocation("gmail_list_emails").WithSession("secret-session")
	ti.CompleteSuccess()
	al.LogToolInvocation(ti)

	out := buf.String()
	if !strings.Contains(out, "tool_executed") {
		t.Errorf("output missing tool_executed: %s", out)
	}
	if strings.Contains(out, "secret-session") {
		t.Errorf("output leaked raw session ID: %s", out)
	}

	buf.Reset()
	ti = NewToolInvocation("gmail_send_email").WithSession("secret-session")
	ti.CompleteWithError(errors.New("quota exceeded"))
	al.LogToolInvocation(ti)

	out = buf.String()
	if !strings.Contains(out, "tool_failed") {
		t.Errorf("output missing tool_failed: %s", out)
	}
	if !strings.Contains(out, "quota exceeded") {
		t.Errorf("output missing error message: %s", out)
	}
}

func TestAuditLogger_IncludeSessionIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{
		Enabled:           true,
		IncludeSessionIDs: true,
	})

	ti := NewToolInvocation("gmail_list_emails").WithSession("secret-session")
	ti.CompleteSuccess()
	al.LogToolInvocation(ti)

	if !strings.Contains(buf.String(), "secret-session") {
		t.Errorf("output missing raw session ID with IncludeSessionIDs: %s", buf.String())
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})

	ti := NewToolInvocation("gmail_list_emails")
	ti.CompleteSuccess()
	al.LogToolInvocation(ti)
	al.LogAuthEvent("auth_completed", "s1", nil)

	if buf.Len() != 0 {
		t.Errorf("disabled audit logger produced output: %s", buf.String())
	}
}

func TestAuditLogger_LogAuthEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	al := NewAuditLogger(logger)

	al.LogAuthEvent("auth_completed", "secret-session", []string{
		"https://www.googleapis.com/auth/gmail.readonly",
	})

	out := buf.String()
	if !strings.Contains(out, "auth_event") {
		t.Errorf("output missing auth_event: %s", out)
	}
	if !strings.Contains(out, "auth_completed") {
		t.Errorf("output missing event name: %s", out)
	}
	if !strings.Contains(out, "gmail.readonly") {
		t.Errorf("output missing scopes: %s", out)
	}
	if strings.Contains(out, "secret-session") {
		t.Errorf("output leaked raw session ID: %s", out)
	}
}
