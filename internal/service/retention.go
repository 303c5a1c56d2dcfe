package service

import (
	"context"
	"time"

	"heatbeat/internal/repository"
)

// RetentionService trims the command log behind device cursors. A device that
// never reported a cursor keeps its full history, which preserves the
// at-least-once contract for every cursor still in use.
type RetentionService struct {
	commandRepo repository.CommandRepo
}

func NewRetentionService(commandRepo repository.CommandRepo) *RetentionService {
	return &RetentionService{commandRepo: commandRepo}
}

// Run sweeps at the given interval until ctx is canceled.
func (s *RetentionService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = s.Sweep(ctx)
		}
	}
}

// Sweep deletes, per thermostat, every command the device's recorded cursor
// has already moved past. Returns the total number of commands removed.
func (s *RetentionService) Sweep(ctx context.Context) (int64, error) {
	cursors, err := s.commandRepo.Cursors(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for thermostatID, ordinal := range cursors {
		n, err := s.commandRepo.DeleteThrough(ctx, thermostatID, ordinal)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
