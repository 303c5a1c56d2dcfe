package service

import (
	"context"
	"strings"
	"time"

	"heatbeat/internal/apperrors"
	"heatbeat/internal/models"
	"heatbeat/internal/repository"
)

const defaultThermostatName = "Living room"

type ThermostatService struct {
	thermostatRepo repository.ThermostatRepo
	settingRepo    repository.SettingRepo
}

func NewThermostatService(thermostatRepo repository.ThermostatRepo, settingRepo repository.SettingRepo) *ThermostatService {
	return &ThermostatService{thermostatRepo: thermostatRepo, settingRepo: settingRepo}
}

// List returns the owner's thermostats with their current settings embedded.
func (s *ThermostatService) List(ctx context.Context, ownerID int) ([]models.ThermostatOverview, error) {
	thermostats, err := s.thermostatRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]models.ThermostatOverview, 0, len(thermostats))
	for _, t := range thermostats {
		setting, err := s.settingRepo.Load(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if setting == nil {
			baseline := baselineSetting(t.ID, time.Now().UTC())
			setting = &baseline
		}
		out = append(out, models.ThermostatOverview{
			ID:       t.ID,
			Name:     t.Name,
			Settings: *setting,
		})
	}
	return out, nil
}

// Create registers a thermostat for the owner and writes its baseline setting.
func (s *ThermostatService) Create(ctx context.Context, ownerID int, name string) (models.Thermostat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultThermostatName
	}

	t, err := s.thermostatRepo.Create(ctx, models.Thermostat{Name: name, OwnerID: ownerID})
	if err != nil {
		return models.Thermostat{}, err
	}
	if err := s.settingRepo.Save(ctx, baselineSetting(t.ID, time.Now().UTC())); err != nil {
		return models.Thermostat{}, err
	}
	return t, nil
}

// Authorize verifies the thermostat exists and belongs to ownerID. Both
// failure cases surface as NotFound so existence cannot be probed.
func (s *ThermostatService) Authorize(ctx context.Context, ownerID, thermostatID int) error {
	t, err := s.thermostatRepo.GetByID(ctx, thermostatID)
	if err != nil {
		return err
	}
	if t == nil || t.OwnerID != ownerID {
		return apperrors.NewNotFound("thermostat")
	}
	return nil
}
