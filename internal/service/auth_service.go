package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sujal/maths-tabel-server/internal/config"
	"github.com/sujal/maths-tabel-server/internal/domain"
	"github.com/sujal/maths-tabel-server/internal/metrics"
	"github.com/sujal/maths-tabel-server/internal/repository"
	"github.com/sujal/maths-tabel-server/internal/token"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingApproval    = errors.New("awaiting admin approval")
	ErrUnauthorized       = errors.New("unauthorized")
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	codec       *token.Codec
	cfg         *config.Config
	collector   *metrics.Collector

	// dummyHash keeps the password compare on the "user not found" path
	// so login timing does not reveal whether a username exists.
	dummyHash []byte
}

func NewAuthService(repos *repository.Repositories, codec *token.Codec, cfg *config.Config, collector *metrics.Collector) *AuthService {
	dummyHash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), cfg.BcryptCost)
	if err != nil {
		// bcrypt only fails here on an out-of-range cost, which Load validates.
		panic(err)
	}

	return &AuthService{
		userRepo:    repos.User,
		sessionRepo: repos.Session,
		codec:       codec,
		cfg:         cfg,
		collector:   collector,
		dummyHash:   dummyHash,
	}
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
	Remember bool
}

type LoginResult struct {
	User  *domain.User
	Token string
	TTL   time.Duration
}

// Register creates an unapproved account. There is no auto-login; the
// user stays pending until an admin approves it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	display, lower := domain.NormalizeUsername(input.Username)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	user := &domain.User{
		ID:            uuid.New(),
		Username:      display,
		UsernameLower: lower,
		PasswordHash:  string(hashedPassword),
		Role:          domain.RoleUser,
		Approved:      false,
	}

	return s.userRepo.Create(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput, meta domain.SessionMeta) (*LoginResult, error) {
	_, lower := domain.NormalizeUsername(input.Username)

	user, err := s.userRepo.GetByUsernameLower(ctx, lower)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	compareErr := bcrypt.CompareHashAndPassword(hash, []byte(input.Password))

	if user == nil || compareErr != nil {
		s.collector.RecordLogin("invalid")
		return nil, ErrInvalidCredentials
	}

	if !user.Approved {
		s.collector.RecordLogin("pending")
		return nil, ErrPendingApproval
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	ttl := s.cfg.TokenTTL
	if input.Remember {
		ttl = s.cfg.RememberTokenTTL
	}

	meta = meta.Bounded()
	session := &domain.Session{
		ID:         uuid.New(),
		UserID:     user.ID,
		ExpiresAt:  now.Add(ttl),
		LastSeenAt: now,
		UserAgent:  meta.UserAgent,
		IPAddress:  meta.IPAddress,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	tok, err := s.codec.Issue(user.ID, user.Role, session.ID, ttl)
	if err != nil {
		return nil, err
	}

	s.collector.RecordLogin("success")
	return &LoginResult{User: user, Token: tok, TTL: ttl}, nil
}

// Logout removes the session referenced by the cookie token, if any.
// The token is decoded without verification: an expired token must
// still be able to clear its own session. Always succeeds.
func (s *AuthService) Logout(ctx context.Context, rawToken string) {
	if rawToken == "" {
		return
	}

	claims := s.codec.Decode(rawToken)
	if claims == nil || claims.SessionID == "" {
		return
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return
	}

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		log.Printf("ERROR [service.Auth] logout session delete failed: %v", err)
	}
}

// Authenticate runs the full per-request authorization chain: verify
// the token, confirm the session is still live, confirm the user still
// exists and is approved. Any failure is ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*domain.User, uuid.UUID, error) {
	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		return nil, uuid.Nil, ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, uuid.Nil, ErrUnauthorized
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, uuid.Nil, ErrUnauthorized
	}

	now := time.Now()
	session, err := s.sessionRepo.GetValid(ctx, sessionID, userID, now)
	if err != nil {
		return nil, uuid.Nil, ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || !user.Approved {
		// The session outlived its user or the approval was revoked;
		// remove it so the token cannot be replayed against a re-approval.
		if delErr := s.sessionRepo.Delete(ctx, sessionID); delErr != nil {
			log.Printf("ERROR [service.Auth] defensive session delete failed: %v", delErr)
		}
		return nil, uuid.Nil, ErrUnauthorized
	}

	if now.Sub(session.LastSeenAt) > s.cfg.TouchInterval {
		s.touchAsync(sessionID)
	}

	return user, sessionID, nil
}

// touchAsync updates the session's last-seen marker off the request
// path. Failures are swallowed: freshness is an optimization, not a
// correctness requirement.
func (s *AuthService) touchAsync(sessionID uuid.UUID) {
	interval := s.cfg.TouchInterval
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.sessionRepo.Touch(ctx, sessionID, time.Now(), interval)
	}()
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
