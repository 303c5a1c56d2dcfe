package service

import (
	"context"
	"time"

	"heatbeat/internal/models"
	"heatbeat/internal/repository"
)

// CommandService is the per-device delivery log. Delivery is at-least-once:
// the queue keeps no acknowledgement state, so a device that forgets its
// cursor re-receives its entire retained history.
type CommandService struct {
	commandRepo    repository.CommandRepo
	thermostatRepo repository.ThermostatRepo
}

func NewCommandService(commandRepo repository.CommandRepo, thermostatRepo repository.ThermostatRepo) *CommandService {
	return &CommandService{commandRepo: commandRepo, thermostatRepo: thermostatRepo}
}

// Enqueue appends a set_target command to the thermostat's log.
func (s *CommandService) Enqueue(ctx context.Context, thermostatID int, targetTempC float64) (models.Command, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return models.Command{}, err
	}
	return s.commandRepo.Append(ctx, thermostatID, models.CommandSetTarget, targetTempC, time.Now().UTC())
}

// Pull returns commands with ordinal > since in ascending order. A positive
// since is also recorded as the device's cursor so retention can trim behind
// it; recording is best-effort and never fails the pull.
func (s *CommandService) Pull(ctx context.Context, thermostatID int, since int64) ([]models.Command, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return nil, err
	}
	if since < 0 {
		since = 0
	}

	cmds, err := s.commandRepo.ListSince(ctx, thermostatID, since)
	if err != nil {
		return nil, err
	}

	if since > 0 {
		_ = s.commandRepo.RecordCursor(ctx, thermostatID, since, time.Now().UTC())
	}

	return cmds, nil
}
