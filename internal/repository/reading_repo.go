package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"heatbeat/internal/models"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite {
	return &ReadingSQLite{db: db}
}

var _ ReadingRepo = (*ReadingSQLite)(nil)

const (
	insertReadingSQL = `
		INSERT INTO readings (thermostat_id, temperature_c, humidity_pct, pressure_hpa, battery_v, rssi_dbm, window_open_detected, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRecentReadingsSQL = `
		SELECT id, thermostat_id, temperature_c, humidity_pct, pressure_hpa, battery_v, rssi_dbm, window_open_detected, created_at
		FROM readings WHERE thermostat_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
)

// Append stores one telemetry sample. CreatedAt is persisted as UTC; a zero
// value is replaced with the current time.
func (r *ReadingSQLite) Append(ctx context.Context, reading models.Reading) (models.Reading, error) {
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now()
	}
	reading.CreatedAt = reading.CreatedAt.UTC()

	res, err := r.db.ExecContext(ctx, insertReadingSQL,
		reading.ThermostatID,
		reading.TemperatureC,
		reading.HumidityPct,
		reading.PressureHPa,
		reading.BatteryV,
		reading.RSSIdBm,
		reading.WindowOpenDetected,
		reading.CreatedAt,
	)
	if err != nil {
		return models.Reading{}, fmt.Errorf("insert reading: %w", err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return models.Reading{}, fmt.Errorf("reading last insert id: %w", err)
	}
	reading.ID = int(lastID)
	return reading, nil
}

// ListRecent returns the newest readings first.
func (r *ReadingSQLite) ListRecent(ctx context.Context, thermostatID, limit int) ([]models.Reading, error) {
	rows, err := r.db.QueryContext(ctx, selectRecentReadingsSQL, thermostatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Reading, 0, limit)
	for rows.Next() {
		var rd models.Reading
		if err := rows.Scan(
			&rd.ID,
			&rd.ThermostatID,
			&rd.TemperatureC,
			&rd.HumidityPct,
			&rd.PressureHPa,
			&rd.BatteryV,
			&rd.RSSIdBm,
			&rd.WindowOpenDetected,
			&rd.CreatedAt,
		); err != nil {
			return nil, err
		}
		rd.CreatedAt = rd.CreatedAt.UTC()
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
