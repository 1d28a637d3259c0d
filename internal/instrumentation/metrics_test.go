package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, ctx context.Context) *Provider {
	t.Helper()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/oauth/callback", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "GET", "/oauth/status", 404, 50*time.Millisecond)
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationList, StatusSuccess, 200*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationCreate, StatusError, 500*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceSearch, OperationSearch, StatusSuccess, 100*time.Millisecond)
}

func TestMetrics_RecordOAuthCounters(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.RecordOAuthAuth(ctx, "resolved")
	metrics.RecordOAuthAuth(ctx, "url_issued")
	metrics.RecordOAuthTokenExchange(ctx, StatusSuccess)
	metrics.RecordOAuthTokenExchange(ctx, StatusError)
	metrics.RecordOAuthTokenRefresh(ctx, StatusSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, StatusError)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.RecordToolInvocation(ctx, "gmail_list_emails", StatusSuccess, 200*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "calendar_create_event", StatusError, 100*time.Millisecond)
	metrics.RecordToolInvocationWithSession(ctx, "google_search", StatusSuccess, "session-1", 50*time.Millisecond)
}

func TestMetrics_ActiveSessions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.IncrementActiveSessions(ctx)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetrics_UninitializedIsNoop(t *testing.T) {
	ctx := context.Background()
	m := &Metrics{}

	// All recorders must tolerate an uninitialized Metrics value
	m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationGet, StatusSuccess, time.Millisecond)
	m.RecordOAuthAuth(ctx, "resolved")
	m.RecordOAuthTokenExchange(ctx, StatusSuccess)
	m.RecordOAuthTokenRefresh(ctx, StatusSuccess)
	m.RecordToolInvocation(ctx, "tool", StatusSuccess, time.Millisecond)
	m.RecordToolInvocationWithSession(ctx, "tool", StatusSuccess, "s1", time.Millisecond)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)
}

func TestProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create disabled provider: %v", err)
	}
	if provider.Enabled() {
		t.Error("expected provider to report disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected a no-op metrics recorder, got nil")
	}
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
