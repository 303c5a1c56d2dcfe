package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"heatbeat/internal/models"
)

type CommandSQLite struct {
	db *sql.DB
}

func NewCommandSQLite(db *sql.DB) *CommandSQLite {
	return &CommandSQLite{db: db}
}

var _ CommandRepo = (*CommandSQLite)(nil)

const (
	selectMaxOrdinalSQL = `SELECT COALESCE(MAX(ordinal), 0) FROM commands WHERE thermostat_id = ?`

	insertCommandSQL = `
		INSERT INTO commands (id, thermostat_id, ordinal, kind, target_temp_c, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectCommandsSinceSQL = `
		SELECT id, thermostat_id, ordinal, kind, target_temp_c, created_at
		FROM commands WHERE thermostat_id = ? AND ordinal > ?
		ORDER BY ordinal ASC
	`

	upsertCursorSQL = `
		INSERT INTO device_cursors (thermostat_id, last_ordinal, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(thermostat_id) DO UPDATE SET
			last_ordinal=MAX(last_ordinal, excluded.last_ordinal),
			updated_at=excluded.updated_at
	`

	selectCursorsSQL = `SELECT thermostat_id, last_ordinal FROM device_cursors`

	deleteCommandsThroughSQL = `DELETE FROM commands WHERE thermostat_id = ? AND ordinal <= ?`
)

// commandID builds the globally unique command id. The trailing number is the
// per-thermostat ordinal devices use as their pull cursor.
func commandID(thermostatID int, ordinal int64) string {
	return fmt.Sprintf("cmd_%d_%d", thermostatID, ordinal)
}

// Append inserts a command with ordinal = previous max + 1 for the thermostat.
// The max lookup and the insert share one transaction so ordinals are never
// skipped or reused.
func (r *CommandSQLite) Append(ctx context.Context, thermostatID int, kind string, targetTempC float64, at time.Time) (models.Command, error) {
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Command{}, fmt.Errorf("begin append command: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var last int64
	if err := tx.QueryRowContext(ctx, selectMaxOrdinalSQL, thermostatID).Scan(&last); err != nil {
		return models.Command{}, fmt.Errorf("read max ordinal for thermostat %d: %w", thermostatID, err)
	}

	cmd := models.Command{
		ID:           commandID(thermostatID, last+1),
		ThermostatID: thermostatID,
		Ordinal:      last + 1,
		Kind:         kind,
		TargetTempC:  targetTempC,
		CreatedAt:    at,
	}

	if _, err := tx.ExecContext(ctx, insertCommandSQL,
		cmd.ID, cmd.ThermostatID, cmd.Ordinal, cmd.Kind, cmd.TargetTempC, cmd.CreatedAt,
	); err != nil {
		return models.Command{}, fmt.Errorf("insert command %s: %w", cmd.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return models.Command{}, fmt.Errorf("commit append command: %w", err)
	}
	return cmd, nil
}

// ListSince returns commands with ordinal > since in ascending ordinal order.
func (r *CommandSQLite) ListSince(ctx context.Context, thermostatID int, since int64) ([]models.Command, error) {
	rows, err := r.db.QueryContext(ctx, selectCommandsSinceSQL, thermostatID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Command, 0, 16)
	for rows.Next() {
		var c models.Command
		if err := rows.Scan(&c.ID, &c.ThermostatID, &c.Ordinal, &c.Kind, &c.TargetTempC, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordCursor stores the highest ordinal a device has acknowledged via its
// pull cursor. Cursors only move forward.
func (r *CommandSQLite) RecordCursor(ctx context.Context, thermostatID int, ordinal int64, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, upsertCursorSQL, thermostatID, ordinal, at.UTC())
	return err
}

// Cursors returns the last reported cursor per thermostat.
func (r *CommandSQLite) Cursors(ctx context.Context) (map[int]int64, error) {
	rows, err := r.db.QueryContext(ctx, selectCursorsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]int64)
	for rows.Next() {
		var tid int
		var ord int64
		if err := rows.Scan(&tid, &ord); err != nil {
			return nil, err
		}
		out[tid] = ord
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteThrough removes commands with ordinal <= through for a thermostat and
// reports how many rows were deleted.
func (r *CommandSQLite) DeleteThrough(ctx context.Context, thermostatID int, through int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteCommandsThroughSQL, thermostatID, through)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
