package client

import (
	"context"
	"regexp"
	"sync"

	"github.com/google/uuid"
)

var sessionIDPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Storage persists the session id between runs, the way a browser keeps
// it in local storage. Implementations return "" when no id is stored.
type Storage interface {
	Load() string
	Save(id string)
	Clear()
}

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu sync.Mutex
	id string
}

func (s *MemoryStorage) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *MemoryStorage) Save(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
}

// SessionStore resolves and persists the consultation session id. A
// stored id is kept only when it still looks like a UUIDv4 and the
// server still knows it; otherwise the server issues a fresh one. When
// the server is unreachable a locally generated id keeps the client
// usable offline.
type SessionStore struct {
	api     *Client
	storage Storage
}

// NewSessionStore creates a session store. A nil storage keeps the id in
// memory only.
func NewSessionStore(api *Client, storage Storage) *SessionStore {
	if storage == nil {
		storage = &MemoryStorage{}
	}
	return &SessionStore{api: api, storage: storage}
}

// SessionID returns the current session id, resolving one if needed.
func (s *SessionStore) SessionID(ctx context.Context) string {
	if id := s.storage.Load(); sessionIDPattern.MatchString(id) {
		if _, err := s.api.SessionData(ctx, id); err == nil {
			return id
		}
	}

	sess, err := s.api.CreateSession(ctx, nil)
	if err != nil {
		// Server unreachable, fall back to a local id so the next
		// message can still be sent; the server will adopt or replace it.
		id := uuid.NewString()
		s.storage.Save(id)
		return id
	}

	s.storage.Save(sess.SessionID)
	return sess.SessionID
}

// Reset discards the stored session on both sides and resolves a fresh
// one.
func (s *SessionStore) Reset(ctx context.Context) string {
	if id := s.storage.Load(); id != "" {
		_ = s.api.DeleteSession(ctx, id)
	}
	s.storage.Clear()
	return s.SessionID(ctx)
}
