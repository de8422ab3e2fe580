package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"usergate/internal/user/models"
	"usergate/pkg/platform/sentinel"
)

// Error Contract:
// - Get, Update and Delete return sentinel.ErrNotFound for an unknown id
// - List returns a copy; callers may not mutate store state through it

// InMemoryUserStore keeps users in insertion order behind a RWMutex.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users []models.User
}

// SeedUsers is the directory every fresh process starts with.
func SeedUsers() []models.User {
	return []models.User{
		{ID: 1, Name: "John Doe", Email: "john@example.com"},
		{ID: 2, Name: "Jane Doe", Email: "jane@example.com"},
	}
}

// New constructs a store holding a copy of seed.
func New(seed ...models.User) *InMemoryUserStore {
	return &InMemoryUserStore{users: slices.Clone(seed)}
}

// NewSeeded constructs a store holding SeedUsers.
func NewSeeded() *InMemoryUserStore {
	return New(SeedUsers()...)
}

func (s *InMemoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *InMemoryUserStore) Get(_ context.Context, id int) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.users[i], nil
	}
	return models.User{}, fmt.Errorf("user %d: %w", id, sentinel.ErrNotFound)
}

// Add assigns the next id, one above the current maximum (1 when empty).
func (s *InMemoryUserStore) Add(_ context.Context, req models.UserRequest) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maxID := 0
	for _, u := range s.users {
		maxID = max(maxID, u.ID)
	}
	user := models.User{ID: maxID + 1, Name: req.Name, Email: req.Email}
	s.users = append(s.users, user)
	return user, nil
}

func (s *InMemoryUserStore) Update(_ context.Context, id int, req models.UserRequest) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.User{}, fmt.Errorf("user %d: %w", id, sentinel.ErrNotFound)
	}
	s.users[i].Name = req.Name
	s.users[i].Email = req.Email
	return s.users[i], nil
}

func (s *InMemoryUserStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("user %d: %w", id, sentinel.ErrNotFound)
	}
	s.users = slices.Delete(s.users, i, i+1)
	return nil
}

// indexOf must be called with mu held.
func (s *InMemoryUserStore) indexOf(id int) int {
	return slices.IndexFunc(s.users, func(u models.User) bool { return u.ID == id })
}
