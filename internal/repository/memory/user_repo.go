package memory

import (
	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/repository"
	"context"
	"errors"
	"sync"
	"time"
)

// UserRepository implements repository.UserRepository.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]domain.User
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		return errors.New("user ID is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return errors.New("user with this ID already exists")
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.LastSeenAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) Touch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastSeenAt = time.Now().UTC()
	r.users[id] = u
	return nil
}
