package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sujal/maths-tabel-server/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsernameLower(ctx context.Context, usernameLower string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListPending(ctx context.Context) ([]*domain.User, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// GetValid returns the session only when it belongs to userID and has
	// not expired as of now.
	GetValid(ctx context.Context, id, userID uuid.UUID, now time.Time) (*domain.Session, error)
	// Touch advances LastSeenAt, but only when the current value is at
	// least interval old. Concurrent callers within one interval are no-ops.
	Touch(ctx context.Context, id uuid.UUID, now time.Time, interval time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByUserID removes every session of the user except the one
	// identified by except. Pass uuid.Nil to remove them all.
	DeleteByUserID(ctx context.Context, userID uuid.UUID, except uuid.UUID) error
	// DeleteExpired sweeps rows with expires_at <= now and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ListActive(ctx context.Context, now time.Time) ([]*domain.Session, error)
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
}
