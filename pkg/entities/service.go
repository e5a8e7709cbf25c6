// Package entities implements the typed operations of the persistent data
// model. Each operation renders the key paths declared by the entity's
// schema descriptor and commits every path in one atomic store write, so a
// partially indexed item is never observable.
package entities

import (
	"errors"
	"sync"

	"chatdb/pkg/store"
)

// ErrNotFound mirrors the store sentinel so callers need only one import.
var ErrNotFound = store.ErrNotFound

// ErrConflict is returned when a write would violate a uniqueness
// constraint, e.g. registering an email that already has an account.
var ErrConflict = errors.New("entities: conflict")

// Service exposes the entity operations over one store.
type Service struct {
	store *store.Store

	// chatMu serializes message sequence allocation per chat. Pebble gives
	// us atomic batches but not read-modify-write, so the next-sequence
	// read and the append must not interleave for the same chat.
	mu     sync.Mutex
	chatMu map[uint64]*sync.Mutex
}

// New returns a Service over the given store.
func New(st *store.Store) *Service {
	return &Service{store: st, chatMu: make(map[uint64]*sync.Mutex)}
}

// Store exposes the underlying store (health checks, purge runs).
func (s *Service) Store() *store.Store { return s.store }

func (s *Service) lockChat(chatID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.chatMu[chatID]
	if !ok {
		m = &sync.Mutex{}
		s.chatMu[chatID] = m
	}
	return m
}
