package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sujal/maths-tabel-server/internal/config"
	"github.com/sujal/maths-tabel-server/internal/domain"
	"github.com/sujal/maths-tabel-server/internal/metrics"
	"github.com/sujal/maths-tabel-server/internal/repository"
)

var (
	ErrCannotRejectAdmin = errors.New("admin user cannot be rejected")
	ErrWrongPassword     = errors.New("current password is incorrect")
)

type AdminService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	cfg         *config.Config
	collector   *metrics.Collector
}

func NewAdminService(repos *repository.Repositories, cfg *config.Config, collector *metrics.Collector) *AdminService {
	return &AdminService{
		userRepo:    repos.User,
		sessionRepo: repos.Session,
		cfg:         cfg,
		collector:   collector,
	}
}

// SessionRow is one active session joined with its user, for the
// admin overview.
type SessionRow struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Username   string      `json:"username"`
	Role       domain.Role `json:"role"`
	Approved   bool        `json:"approved"`
	CreatedAt  time.Time   `json:"created_at"`
	LastSeenAt time.Time   `json:"last_seen_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// UserRow is the per-user summary for the admin overview.
type UserRow struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	Role           domain.Role `json:"role"`
	Approved       bool        `json:"approved"`
	CreatedAt      time.Time   `json:"created_at"`
	LastLoginAt    *time.Time  `json:"last_login_at"`
	ActiveSessions int         `json:"active_sessions"`
	LastSeenAt     *time.Time  `json:"last_seen_at"`
}

type Overview struct {
	Sessions []SessionRow `json:"sessions"`
	Users    []UserRow    `json:"users"`
}

func (s *AdminService) ListPending(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.ListPending(ctx)
}

// Overview sweeps expired sessions first, then reports every active
// session joined with its user plus a per-user summary, both sorted by
// recency.
func (s *AdminService) Overview(ctx context.Context) (*Overview, error) {
	now := time.Now()

	swept, err := s.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	s.collector.RecordSessionsSwept(swept)

	sessions, err := s.sessionRepo.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	usersByID := make(map[uuid.UUID]*domain.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	type summary struct {
		count    int
		lastSeen time.Time
	}
	summaries := make(map[uuid.UUID]*summary)

	sessionRows := make([]SessionRow, 0, len(sessions))
	for _, session := range sessions {
		sum := summaries[session.UserID]
		if sum == nil {
			sum = &summary{}
			summaries[session.UserID] = sum
		}
		sum.count++
		if session.LastSeenAt.After(sum.lastSeen) {
			sum.lastSeen = session.LastSeenAt
		}

		user, ok := usersByID[session.UserID]
		if !ok {
			// Orphaned session, user was deleted concurrently.
			continue
		}

		sessionRows = append(sessionRows, SessionRow{
			ID:         session.ID.String(),
			UserID:     user.ID.String(),
			Username:   user.Username,
			Role:       user.Role,
			Approved:   user.Approved,
			CreatedAt:  session.CreatedAt,
			LastSeenAt: session.LastSeenAt,
			ExpiresAt:  session.ExpiresAt,
		})
	}

	userRows := make([]UserRow, 0, len(users))
	for _, user := range users {
		row := UserRow{
			ID:          user.ID.String(),
			Username:    user.Username,
			Role:        user.Role,
			Approved:    user.Approved,
			CreatedAt:   user.CreatedAt,
			LastLoginAt: user.LastLoginAt,
		}
		if sum, ok := summaries[user.ID]; ok {
			row.ActiveSessions = sum.count
			lastSeen := sum.lastSeen
			row.LastSeenAt = &lastSeen
		}
		userRows = append(userRows, row)
	}

	sort.Slice(userRows, func(i, j int) bool {
		iTS, jTS := time.Time{}, time.Time{}
		if userRows[i].LastSeenAt != nil {
			iTS = *userRows[i].LastSeenAt
		}
		if userRows[j].LastSeenAt != nil {
			jTS = *userRows[j].LastSeenAt
		}
		return iTS.After(jTS)
	})

	return &Overview{Sessions: sessionRows, Users: userRows}, nil
}

// Decide approves or rejects a pending user. Rejection removes the
// account and every session it owns; the admin account itself can
// never be rejected.
func (s *AdminService) Decide(ctx context.Context, userID uuid.UUID, approve bool) error {
	target, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if approve {
		target.Approved = true
		return s.userRepo.Update(ctx, target)
	}

	if target.IsAdmin() {
		return ErrCannotRejectAdmin
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, target.ID, uuid.Nil); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, target.ID)
}

// ChangeOwnPassword re-authenticates the acting admin, rehashes, and
// revokes every other session so a leaked credential cannot keep
// riding an old login. The session making this request survives.
func (s *AdminService) ChangeOwnPassword(ctx context.Context, adminID, currentSessionID uuid.UUID, currentPassword, newPassword string) error {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	admin.PasswordHash = string(newHash)
	if err := s.userRepo.Update(ctx, admin); err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, admin.ID, currentSessionID); err != nil {
		log.Printf("ERROR [service.Admin] revoking other sessions failed: %v", err)
	}
	return nil
}
