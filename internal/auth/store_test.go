package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "sessions.json"), nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return st
}

func TestNewStoreMissingFile(t *testing.T) {
	st := newTestStore(t)
	if st.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for fresh store", st.Len())
	}
}

func TestNewStoreEmptyPath(t *testing.T) {
	if _, err := NewStore("", nil); err == nil {
		t.Error("NewStore(\"\") expected error, got nil")
	}
}

func TestNewStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := NewStore(path, nil)
	if err == nil {
		t.Fatal("NewStore() expected error for corrupt file")
	}
	if !IsKind(err, KindStore) {
		t.Errorf("error kind = %q, want %q", ErrorKind(err), KindStore)
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	st := newTestStore(t)

	sess := &Session{
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Status:    StatusCompleted,
		Scopes:    []string{ScopeGmailReadonly},
		TokenData: &TokenRecord{
			AccessToken:  "at",
			RefreshToken: "rt",
			Scopes:       []string{ScopeGmailReadonly},
			LastUpdated:  time.Now().UTC().Truncate(time.Second),
		},
	}
	if err := st.Put("s1", sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := st.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, StatusCompleted)
	}
	if got.TokenData == nil || got.TokenData.AccessToken != "at" {
		t.Errorf("TokenData = %+v, want access token %q", got.TokenData, "at")
	}

	_, ok, err = st.Get("missing")
	if err != nil {
		t.Fatalf("Get(missing) error = %v", err)
	}
	if ok {
		t.Error("Get(missing) ok = true, want false")
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	st := newTestStore(t)
	if err := st.Put("s1", &Session{
		Status:    StatusCompleted,
		Scopes:    []string{ScopeGmailReadonly},
		TokenData: &TokenRecord{AccessToken: "at"},
	}); err != nil {
		t.Fatal(err)
	}

	got, _, err := st.Get("s1")
	if err != nil {
		t.Fatal(err)
	}
	got.Status = StatusFailed
	got.TokenData.AccessToken = "tampered"
	got.Scopes[0] = "tampered"

	again, _, err := st.Get("s1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != StatusCompleted || again.TokenData.AccessToken != "at" || again.Scopes[0] != ScopeGmailReadonly {
		t.Error("mutating a returned session leaked into the store")
	}
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	st, err := NewStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Put("s1", &Session{Status: StatusPending, Scopes: []string{ScopeCalendar}}); err != nil {
		t.Fatal(err)
	}

	st2, err := NewStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := st2.Get("s1")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if got.Status != StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, StatusPending)
	}
}

func TestStoreSeesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	st, err := NewStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Another process rewrites the file behind the store's back.
	external := `{"ext": {"created_at": "2026-01-02T03:04:05Z", "status": "pending", "scopes": ["` + ScopeGmailReadonly + `"], "token_data": null}}`
	if err := os.WriteFile(path, []byte(external), 0600); err != nil {
		t.Fatal(err)
	}

	got, ok, err := st.Get("ext")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("externally written session not visible")
	}
	if got.Status != StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, StatusPending)
	}
}

func TestStoreMigratesLegacyScopeField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	legacy := `{"old": {"created_at": "2025-01-01T00:00:00Z", "status": "completed", "scope": "` + ScopeGmailReadonly + `", "token_data": {"token": "at", "last_updated": "2025-01-01T00:00:00Z"}}}`
	if err := os.WriteFile(path, []byte(legacy), 0600); err != nil {
		t.Fatal(err)
	}

	st, err := NewStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := st.Get("old")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if len(got.Scopes) != 1 || got.Scopes[0] != ScopeGmailReadonly {
		t.Errorf("Scopes = %v, want [%s]", got.Scopes, ScopeGmailReadonly)
	}
	if got.LegacyScope != "" {
		t.Errorf("LegacyScope = %q, want empty after migration", got.LegacyScope)
	}
}

func TestStoreCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sessions.json")
	st, err := NewStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Put("s1", &Session{Status: StatusPending}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file not created: %v", err)
	}
}

func TestStoreFilePermissions(t *testing.T) {
	st := newTestStore(t)
	if err := st.Put("s1", &Session{Status: StatusPending}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(st.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("store file permissions = %o, want 0600", perm)
	}
}

func TestStoreStats(t *testing.T) {
	st := newTestStore(t)
	if err := st.Put("pending", &Session{Status: StatusPending}); err != nil {
		t.Fatal(err)
	}
	if err := st.Put("done", &Session{
		Status:    StatusCompleted,
		TokenData: &TokenRecord{AccessToken: "at"},
	}); err != nil {
		t.Fatal(err)
	}

	stats := st.Stats()
	if stats["sessions"] != 2 {
		t.Errorf("sessions = %d, want 2", stats["sessions"])
	}
	if stats["authorized"] != 1 {
		t.Errorf("authorized = %d, want 1", stats["authorized"])
	}
}

func TestLockSessionSerializesPerSession(t *testing.T) {
	st := newTestStore(t)

	unlock := st.LockSession("a")
	// A different session id must not block.
	done := make(chan struct{})
	go func() {
		u := st.LockSession("b")
		u()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock for a different session blocked")
	}
	unlock()

	// The same id locks again after unlock.
	unlock2 := st.LockSession("a")
	unlock2()
}
