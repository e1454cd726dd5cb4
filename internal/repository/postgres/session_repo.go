package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sujal/maths-tabel-server/internal/domain"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetValid(ctx context.Context, id, userID uuid.UUID, now time.Time) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND expires_at > ?", id, userID, now).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Touch guards the interval in SQL so that any number of concurrent
// callers advances last_seen_at at most once per interval.
func (r *sessionRepository) Touch(ctx context.Context, id uuid.UUID, now time.Time, interval time.Duration) error {
	return r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND last_seen_at <= ?", id, now.Add(-interval)).
		Update("last_seen_at", now).Error
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Session{}, "id = ?", id).Error
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID, except uuid.UUID) error {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	return q.Delete(&domain.Session{}).Error
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.Session{})
	return result.RowsAffected, result.Error
}

func (r *sessionRepository) ListActive(ctx context.Context, now time.Time) ([]*domain.Session, error) {
	var sessions []*domain.Session
	err := r.db.WithContext(ctx).
		Where("expires_at > ?", now).
		Order("last_seen_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
