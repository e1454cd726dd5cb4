package service

import (
	"github.com/sujal/maths-tabel-server/internal/config"
	"github.com/sujal/maths-tabel-server/internal/metrics"
	"github.com/sujal/maths-tabel-server/internal/repository"
	"github.com/sujal/maths-tabel-server/internal/token"
)

type Services struct {
	Auth  *AuthService
	Admin *AdminService
}

func NewServices(repos *repository.Repositories, codec *token.Codec, cfg *config.Config, collector *metrics.Collector) *Services {
	return &Services{
		Auth:  NewAuthService(repos, codec, cfg, collector),
		Admin: NewAdminService(repos, cfg, collector),
	}
}
