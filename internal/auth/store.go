package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store persists session records in a single JSON document, keyed by session
// id. Every mutation writes the full map back to disk synchronously, and
// reads reload from disk first so that changes made by another process (for
// example a separately running callback server) are observed.
//
// Cross-session operations are independent; per-session read-modify-write
// sequences are serialized through LockSession.
type Store struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex // guards sessions and file I/O
	sessions map[string]*Session

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore creates a session store backed by the JSON file at path and loads
// any existing sessions. A missing file is not an error; the store starts
// empty.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("session store path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	st := &Store{
		path:     path,
		logger:   logger,
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.load(); err != nil {
		return nil, err
	}

	st.logger.Debug("Loaded session store", "path", path, "sessions", len(st.sessions))
	return st, nil
}

// Path returns the file the store persists to.
func (st *Store) Path() string {
	return st.path
}

// LockSession acquires the mutex serializing read-modify-write sequences for
// one session id and returns the corresponding unlock function. Different
// session ids never contend on the same lock.
func (st *Store) LockSession(sessionID string) func() {
	st.locksMu.Lock()
	l, ok := st.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		st.locks[sessionID] = l
	}
	st.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns a deep copy of the session for the given id. The store is
// reloaded from disk first, so writes by external processes are visible;
// read-your-writes is otherwise not guaranteed across processes.
func (st *Store) Get(sessionID string) (*Session, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.load(); err != nil {
		return nil, false, err
	}

	s, ok := st.sessions[sessionID]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

// Put stores a deep copy of the session under the given id and persists the
// full map to disk before returning.
func (st *Store) Put(sessionID string, s *Session) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	st.sessions[sessionID] = s.Clone()
	return st.save()
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Stats returns statistics about the store.
func (st *Store) Stats() map[string]int {
	st.mu.Lock()
	defer st.mu.Unlock()

	authorized := 0
	for _, s := range st.sessions {
		if s.Authorized() {
			authorized++
		}
	}
	return map[string]int{
		"sessions":   len(st.sessions),
		"authorized": authorized,
	}
}

// load replaces the in-memory map with the file contents, applying the
// legacy singular-scope migration. Callers hold st.mu.
func (st *Store) load() error {
	data, err := os.ReadFile(st.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			st.sessions = make(map[string]*Session)
			return nil
		}
		return WrapError(KindStore, fmt.Sprintf("failed to read session store %s", st.path), err)
	}

	sessions := make(map[string]*Session)
	if err := json.Unmarshal(data, &sessions); err != nil {
		return WrapError(KindStore, fmt.Sprintf("failed to parse session store %s", st.path), err)
	}

	for _, s := range sessions {
		s.migrate()
	}
	st.sessions = sessions
	return nil
}

// save persists the full in-memory map. It writes to a temporary file in the
// same directory and renames it into place so a crash mid-write never leaves
// a truncated store behind. Callers hold st.mu.
func (st *Store) save() error {
	data, err := json.MarshalIndent(st.sessions, "", "  ")
	if err != nil {
		return WrapError(KindStore, "failed to encode session store", err)
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return WrapError(KindStore, fmt.Sprintf("failed to create store directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*.json")
	if err != nil {
		return WrapError(KindStore, "failed to create temporary store file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return WrapError(KindStore, "failed to write session store", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return WrapError(KindStore, "failed to close session store", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return WrapError(KindStore, "failed to set session store permissions", err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return WrapError(KindStore, fmt.Sprintf("failed to replace session store %s", st.path), err)
	}
	return nil
}
