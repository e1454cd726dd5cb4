package service

import (
	"context"
	"log"
	"time"

	"github.com/sujal/maths-tabel-server/internal/metrics"
	"github.com/sujal/maths-tabel-server/internal/repository"
)

// Sweeper periodically removes expired session rows. Session validity
// is always re-checked at the point of use, so the sweep is free to
// run concurrently with logins and logouts.
type Sweeper struct {
	sessionRepo repository.SessionRepository
	interval    time.Duration
	collector   *metrics.Collector
}

func NewSweeper(sessionRepo repository.SessionRepository, interval time.Duration, collector *metrics.Collector) *Sweeper {
	return &Sweeper{
		sessionRepo: sessionRepo,
		interval:    interval,
		collector:   collector,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swept, err := s.sessionRepo.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Printf("ERROR [service.Sweeper] sweep failed: %v", err)
				continue
			}
			s.collector.RecordSessionsSwept(swept)
			if swept > 0 {
				log.Printf("Swept %d expired sessions", swept)
			}
		case <-ctx.Done():
			return
		}
	}
}
