package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"heatbeat/internal/models"
)

type ThermostatSQLite struct {
	db *sql.DB
}

func NewThermostatSQLite(db *sql.DB) *ThermostatSQLite {
	return &ThermostatSQLite{db: db}
}

var _ ThermostatRepo = (*ThermostatSQLite)(nil)

const (
	insertThermostatSQL       = `INSERT INTO thermostats (name, owner_id) VALUES (?, ?)`
	selectThermostatSQL       = `SELECT id, name, owner_id FROM thermostats WHERE id = ?`
	selectThermostatsByOwnSQL = `SELECT id, name, owner_id FROM thermostats WHERE owner_id = ? ORDER BY id ASC`
)

func (r *ThermostatSQLite) Create(ctx context.Context, t models.Thermostat) (models.Thermostat, error) {
	res, err := r.db.ExecContext(ctx, insertThermostatSQL, t.Name, t.OwnerID)
	if err != nil {
		return models.Thermostat{}, fmt.Errorf("insert thermostat %q: %w", t.Name, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return models.Thermostat{}, fmt.Errorf("thermostat last insert id: %w", err)
	}
	t.ID = int(lastID)
	return t, nil
}

// GetByID returns (nil, nil) when the thermostat does not exist.
func (r *ThermostatSQLite) GetByID(ctx context.Context, id int) (*models.Thermostat, error) {
	var t models.Thermostat
	err := r.db.QueryRowContext(ctx, selectThermostatSQL, id).Scan(&t.ID, &t.Name, &t.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select thermostat %d: %w", id, err)
	}
	return &t, nil
}

func (r *ThermostatSQLite) ListByOwner(ctx context.Context, ownerID int) ([]models.Thermostat, error) {
	rows, err := r.db.QueryContext(ctx, selectThermostatsByOwnSQL, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Thermostat, 0, 4)
	for rows.Next() {
		var t models.Thermostat
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
