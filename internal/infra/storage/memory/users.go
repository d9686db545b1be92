package memory

import (
	"context"
	"strings"
	"sync"

	domainuser "stayloop/internal/domain/user"
)

// UserRepository keeps users in memory, enforcing email uniqueness the way
// the Mongo unique index does.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[domainuser.ID]*domainuser.User
	byEmail map[string]domainuser.ID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[domainuser.ID]*domainuser.User),
		byEmail: make(map[string]domainuser.ID),
	}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return u, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalize(email)]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalize(u.Email)
	if owner, ok := r.byEmail[email]; ok && owner != u.ID {
		return domainuser.ErrEmailAlreadyUsed
	}
	if prev, ok := r.byID[u.ID]; ok && normalize(prev.Email) != email {
		delete(r.byEmail, normalize(prev.Email))
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
