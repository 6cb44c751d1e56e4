package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// AttemptSweeper removes login attempt rows whose lockout has elapsed.
type AttemptSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron     *cron.Cron
	attempts AttemptSweeper
	log      zerolog.Logger
}

func NewScheduler(attempts AttemptSweeper, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		attempts: attempts,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.attempts == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.sweepLockouts); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits up to five seconds for a running
// sweep to finish.
func (s *Scheduler) Stop() {
	done := make(chan struct{})
	go func() {
		<-s.cron.Stop().Done()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) sweepLockouts() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.attempts.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("lockout sweep failed")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("expired lockouts swept")
	}
}
