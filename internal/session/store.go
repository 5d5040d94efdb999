package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Persister keeps the raw token between runs.
type Persister interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileStore persists the token in a single 0600 file.
type FileStore struct {
	Path string
}

func (f FileStore) Load() (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (f FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token+"\n"), 0o600)
}

func (f FileStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Store is the single holder of the current identity. Create one at start
// up, call Init, and pass it to whatever needs the logged-in user.
type Store struct {
	persist Persister
	now     func() time.Time

	mu      sync.RWMutex
	current *Identity
	subs    map[int]chan Identity
	nextSub int
}

func NewStore(p Persister) *Store {
	return &Store{persist: p, now: time.Now, subs: make(map[int]chan Identity)}
}

// Init loads the persisted token. An undecodable or expired token is cleared.
func (s *Store) Init() error {
	_, _, err := s.Refresh()
	return err
}

// Current returns the identity, if logged in.
func (s *Store) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Identity{}, false
	}
	return *s.current, true
}

// Subscribe delivers the latest identity after every change; a zero
// Identity means logged out. Slow readers only see the newest value.
func (s *Store) Subscribe() (<-chan Identity, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Identity, 1)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Login stores a freshly issued token.
func (s *Store) Login(token string) (Identity, error) {
	id, err := Decode(token)
	if err != nil {
		return Identity{}, err
	}
	if err := s.persist.Save(id.Token); err != nil {
		return Identity{}, fmt.Errorf("persist token: %w", err)
	}
	s.set(&id)
	return id, nil
}

// Logout forgets the token locally.
func (s *Store) Logout() error {
	s.set(nil)
	return s.persist.Clear()
}

// Refresh re-reads the persisted token and re-derives the identity.
func (s *Store) Refresh() (Identity, bool, error) {
	token, err := s.persist.Load()
	if err != nil {
		return Identity{}, false, fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		s.set(nil)
		return Identity{}, false, nil
	}
	id, err := Decode(token)
	if err != nil || id.Expired(s.now()) {
		s.set(nil)
		return Identity{}, false, s.persist.Clear()
	}
	s.set(&id)
	return id, true, nil
}

func (s *Store) set(id *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = id
	var v Identity
	if id != nil {
		v = *id
	}
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}
