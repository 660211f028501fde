package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/domain"
)

// memoryUserRepository keeps accounts in process memory. It enforces the same
// email uniqueness and projection rules as the Postgres implementation.
type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	now   func() time.Time
}

// NewMemoryUserRepository returns an empty in-memory store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users: make(map[string]domain.User),
		now:   time.Now,
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.findByEmailLocked(user.Email, ""); taken {
		return ErrEmailTaken
	}

	now := r.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	stored.PasswordResetToken = nil
	stored.PasswordResetExpires = nil
	r.users[stored.ID] = stored
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string, projection Projection) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return project(user, projection), nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string, projection Projection) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.findByEmailLocked(email, "")
	if !ok {
		return nil, ErrNotFound
	}
	return project(user, projection), nil
}

func (r *memoryUserRepository) GetByEmailExcluding(_ context.Context, email, excludeID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.findByEmailLocked(email, excludeID)
	if !ok {
		return nil, ErrNotFound
	}
	return project(user, ProjectionPublic), nil
}

func (r *memoryUserRepository) GetByResetToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.PasswordResetToken != nil && *user.PasswordResetToken == token && user.HasActiveReset(now) {
			return project(user, ProjectionFull), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryUserRepository) UpdateFields(_ context.Context, id string, changes UserChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}

	if changes.Email != nil {
		if _, taken := r.findByEmailLocked(*changes.Email, id); taken {
			return ErrEmailTaken
		}
		user.Email = *changes.Email
	}
	if changes.PasswordHash != nil {
		user.PasswordHash = *changes.PasswordHash
	}
	switch {
	case changes.PasswordReset != nil:
		token := changes.PasswordReset.Token
		expires := changes.PasswordReset.ExpiresAt
		user.PasswordResetToken = &token
		user.PasswordResetExpires = &expires
	case changes.ClearPasswordReset:
		user.PasswordResetToken = nil
		user.PasswordResetExpires = nil
	}
	user.UpdatedAt = r.now()

	r.users[id] = user
	return nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepository) findByEmailLocked(email, excludeID string) (domain.User, bool) {
	for id, user := range r.users {
		if user.Email == email && id != excludeID {
			return user, true
		}
	}
	return domain.User{}, false
}

func project(user domain.User, projection Projection) *domain.User {
	switch projection {
	case ProjectionFull:
		out := user
		if user.PasswordResetToken != nil {
			token := *user.PasswordResetToken
			out.PasswordResetToken = &token
		}
		if user.PasswordResetExpires != nil {
			expires := *user.PasswordResetExpires
			out.PasswordResetExpires = &expires
		}
		return &out
	case ProjectionCredentials:
		out := user.Public()
		out.PasswordHash = user.PasswordHash
		return out
	default:
		return user.Public()
	}
}
