package service

import (
	"context"
	"time"

	"heatbeat/internal/apperrors"
	"heatbeat/internal/hub"
	"heatbeat/internal/models"
	"heatbeat/internal/repository"
)

// WriteParams describes one target-temperature write from either actor.
type WriteParams struct {
	ThermostatID int
	TargetTempC  float64
	Mode         string // optional; empty keeps the current mode
	Source       string // app | device
}

// SettingService arbitrates concurrent setting writes. The policy is
// last-writer-wins by wall-clock arrival order: no conflict is ever detected
// or rejected, even when a write is causally older than the one it replaces.
// Both actors must always be able to write without coordination.
type SettingService struct {
	settingRepo    repository.SettingRepo
	thermostatRepo repository.ThermostatRepo
	commands       Commands
	notifier       Notifier
}

func NewSettingService(settingRepo repository.SettingRepo, thermostatRepo repository.ThermostatRepo, commands Commands, notifier Notifier) *SettingService {
	return &SettingService{
		settingRepo:    settingRepo,
		thermostatRepo: thermostatRepo,
		commands:       commands,
		notifier:       notifier,
	}
}

// baselineSetting is the state a thermostat reports before its first write.
func baselineSetting(thermostatID int, now time.Time) models.ThermostatSetting {
	return models.ThermostatSetting{
		ThermostatID: thermostatID,
		TargetTempC:  models.DefaultTargetC,
		Mode:         models.ModeAuto,
		LastSource:   models.SourceApp,
		UpdatedAt:    now,
	}
}

func ensureThermostat(ctx context.Context, repo repository.ThermostatRepo, thermostatID int) error {
	t, err := repo.GetByID(ctx, thermostatID)
	if err != nil {
		return err
	}
	if t == nil {
		return apperrors.NewNotFound("thermostat")
	}
	return nil
}

// Get returns the current setting of a thermostat, or the baseline when
// nothing has been written yet.
func (s *SettingService) Get(ctx context.Context, thermostatID int) (models.ThermostatSetting, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return models.ThermostatSetting{}, err
	}
	cur, err := s.settingRepo.Load(ctx, thermostatID)
	if err != nil {
		return models.ThermostatSetting{}, err
	}
	if cur == nil {
		return baselineSetting(thermostatID, time.Now().UTC()), nil
	}
	return *cur, nil
}

// ApplyWrite validates and applies one write, unconditionally replacing the
// stored setting. On success, an app-originated write is enqueued for the
// device to pull later, and every write is published on the live channel.
func (s *SettingService) ApplyWrite(ctx context.Context, p WriteParams) (models.ThermostatSetting, error) {
	if p.TargetTempC < models.MinTargetC || p.TargetTempC > models.MaxTargetC {
		return models.ThermostatSetting{}, apperrors.NewValidation(
			"target_temp_c %.1f out of range [%.1f, %.1f]", p.TargetTempC, models.MinTargetC, models.MaxTargetC)
	}
	if p.Mode != "" && !models.ValidMode(p.Mode) {
		return models.ThermostatSetting{}, apperrors.NewValidation("invalid mode %q: must be auto, heat, or off", p.Mode)
	}
	if !models.ValidSource(p.Source) {
		return models.ThermostatSetting{}, apperrors.NewValidation("invalid source %q: must be app or device", p.Source)
	}
	if err := ensureThermostat(ctx, s.thermostatRepo, p.ThermostatID); err != nil {
		return models.ThermostatSetting{}, err
	}

	now := time.Now().UTC()

	cur, err := s.settingRepo.Load(ctx, p.ThermostatID)
	if err != nil {
		return models.ThermostatSetting{}, err
	}
	set := baselineSetting(p.ThermostatID, now)
	if cur != nil {
		set = *cur
	}

	set.TargetTempC = p.TargetTempC
	if p.Mode != "" {
		set.Mode = p.Mode
	}
	set.LastSource = p.Source
	set.UpdatedAt = now

	if err := s.settingRepo.Save(ctx, set); err != nil {
		return models.ThermostatSetting{}, err
	}

	// The device learns about app writes on its next pull.
	if p.Source == models.SourceApp {
		if _, err := s.commands.Enqueue(ctx, p.ThermostatID, p.TargetTempC); err != nil {
			return models.ThermostatSetting{}, err
		}
	}

	s.notifier.Publish(p.ThermostatID, hub.Event{Type: hub.EventSetpoint, Data: set})

	return set, nil
}
