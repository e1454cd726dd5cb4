package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sujal/maths-tabel-server/internal/config"
	"github.com/sujal/maths-tabel-server/internal/domain"
	"github.com/sujal/maths-tabel-server/internal/repository"
)

// EnsureAdminUser guarantees the canonical admin account exists before
// the server accepts traffic. If the account already exists but has
// drifted (demoted role or cleared approval), it is forced back.
func EnsureAdminUser(ctx context.Context, userRepo repository.UserRepository, cfg *config.Config) error {
	display, lower := domain.NormalizeUsername(cfg.AdminUsername)

	admin, err := userRepo.GetByUsernameLower(ctx, lower)
	if errors.Is(err, domain.ErrUserNotFound) {
		passwordHash, hashErr := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), cfg.BcryptCost)
		if hashErr != nil {
			return hashErr
		}

		admin = &domain.User{
			ID:            uuid.New(),
			Username:      display,
			UsernameLower: lower,
			PasswordHash:  string(passwordHash),
			Role:          domain.RoleAdmin,
			Approved:      true,
		}
		if err := userRepo.Create(ctx, admin); err != nil {
			return err
		}
		log.Printf("Created admin user: %s", admin.Username)
		return nil
	}
	if err != nil {
		return err
	}

	changed := false
	if admin.Role != domain.RoleAdmin {
		admin.Role = domain.RoleAdmin
		changed = true
	}
	if !admin.Approved {
		admin.Approved = true
		changed = true
	}
	if changed {
		return userRepo.Update(ctx, admin)
	}
	return nil
}
