package auth

import (
	"context"
	"sync"

	"smartlocker-web/internal/models"
)

// Store persists the single session of one client.
//
// Load returns nil when nothing is stored or the stored data is unusable; it
// only fails when the storage medium itself cannot be reached. Save and Clear
// write or remove the access token, refresh token and user together.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

// Backend persists sessions of many clients, keyed by an opaque client key.
type Backend interface {
	Get(ctx context.Context, key string) (*models.Session, error)
	Put(ctx context.Context, key string, s *models.Session) error
	Delete(ctx context.Context, key string) error
}

// Scoped adapts a keyed Backend into the Store of one client.
func Scoped(b Backend, key string) Store {
	return &scopedStore{backend: b, key: key}
}

type scopedStore struct {
	backend Backend
	key     string
}

func (s *scopedStore) Load(ctx context.Context) (*models.Session, error) {
	return s.backend.Get(ctx, s.key)
}

func (s *scopedStore) Save(ctx context.Context, sess *models.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	return s.backend.Put(ctx, s.key, sess)
}

func (s *scopedStore) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.key)
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	sess *models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess.Validate() != nil {
		return nil, nil
	}
	return m.sess.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.sess = s.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()
	return nil
}
