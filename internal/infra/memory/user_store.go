package memory

import (
	"context"
	"sync"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
)

// UserStore keeps registered users in process memory. It backs the auth
// endpoints when no Postgres URL is configured.
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{nextID: 1, users: make(map[string]domain.User)}
}

func (s *UserStore) Create(_ context.Context, username, email, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return domain.ErrUserExists
		}
	}
	s.users[username] = domain.User{
		ID:             s.nextID,
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
	}
	s.nextID++
	return nil
}

func (s *UserStore) Find(_ context.Context, usernameOrEmail string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == usernameOrEmail || u.Email == usernameOrEmail {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}
