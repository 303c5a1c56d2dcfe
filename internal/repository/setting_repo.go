package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"heatbeat/internal/models"
)

type SettingSQLite struct {
	db *sql.DB
}

func NewSettingSQLite(db *sql.DB) *SettingSQLite {
	return &SettingSQLite{db: db}
}

var _ SettingRepo = (*SettingSQLite)(nil)

const (
	upsertSettingSQL = `
		INSERT INTO thermostat_settings (thermostat_id, target_temp_c, mode, last_source, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thermostat_id) DO UPDATE SET
			target_temp_c=excluded.target_temp_c,
			mode=excluded.mode,
			last_source=excluded.last_source,
			updated_at=excluded.updated_at
	`

	selectSettingSQL = `
		SELECT thermostat_id, target_temp_c, mode, last_source, updated_at
		FROM thermostat_settings WHERE thermostat_id=?
	`
)

// Save upserts the single setting row of a thermostat. UpdatedAt is always
// persisted as UTC; a zero value is replaced with the current time.
func (r *SettingSQLite) Save(ctx context.Context, s models.ThermostatSetting) error {
	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertSettingSQL,
		s.ThermostatID,
		s.TargetTempC,
		s.Mode,
		s.LastSource,
		tsUTC,
	)
	return err
}

// Load fetches the setting row of a thermostat. Returns (nil, nil) when no
// setting exists yet.
func (r *SettingSQLite) Load(ctx context.Context, thermostatID int) (*models.ThermostatSetting, error) {
	row := r.db.QueryRowContext(ctx, selectSettingSQL, thermostatID)

	var s models.ThermostatSetting
	if err := row.Scan(
		&s.ThermostatID,
		&s.TargetTempC,
		&s.Mode,
		&s.LastSource,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()

	return &s, nil
}
