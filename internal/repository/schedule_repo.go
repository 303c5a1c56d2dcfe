package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"heatbeat/internal/models"
)

type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite {
	return &ScheduleSQLite{db: db}
}

var _ ScheduleRepo = (*ScheduleSQLite)(nil)

const (
	selectEntryColumns = `id, thermostat_id, template_id, weekday, start_time, end_time, target_temp_c`

	insertEntrySQL = `
		INSERT INTO schedule_entries (thermostat_id, template_id, weekday, start_time, end_time, target_temp_c)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	updateEntrySQL = `
		UPDATE schedule_entries
		SET template_id=?, weekday=?, start_time=?, end_time=?, target_temp_c=?
		WHERE id=? AND thermostat_id=?
	`

	deleteEntrySQL = `DELETE FROM schedule_entries WHERE id=? AND thermostat_id=?`

	selectTemplatesSQL = `
		SELECT t.id, t.thermostat_id, t.name, t.description, t.is_active, t.created_at, COUNT(e.id)
		FROM schedule_templates t
		LEFT JOIN schedule_entries e ON e.template_id = t.id
		WHERE t.thermostat_id = ?
		GROUP BY t.id
		ORDER BY t.created_at ASC, t.id ASC
	`

	selectTemplateSQL = `
		SELECT t.id, t.thermostat_id, t.name, t.description, t.is_active, t.created_at, COUNT(e.id)
		FROM schedule_templates t
		LEFT JOIN schedule_entries e ON e.template_id = t.id
		WHERE t.id = ? AND t.thermostat_id = ?
		GROUP BY t.id
	`

	insertTemplateSQL = `
		INSERT INTO schedule_templates (thermostat_id, name, description, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	updateTemplateSQL = `
		UPDATE schedule_templates SET name=?, description=?, is_active=?
		WHERE id=? AND thermostat_id=?
	`

	countTemplateEntriesSQL = `
		SELECT COUNT(*) FROM schedule_entries WHERE template_id=? AND thermostat_id=?
	`

	deleteTemplateEntriesSQL = `DELETE FROM schedule_entries WHERE template_id=? AND thermostat_id=?`

	deleteTemplateSQL = `DELETE FROM schedule_templates WHERE id=? AND thermostat_id=?`
)

// scanEntry reads one schedule entry row, converting the nullable template id.
func scanEntry(scan func(dest ...any) error) (models.ScheduleEntry, error) {
	var e models.ScheduleEntry
	var tpl sql.NullInt64
	if err := scan(&e.ID, &e.ThermostatID, &tpl, &e.Weekday, &e.Start, &e.End, &e.TargetTempC); err != nil {
		return models.ScheduleEntry{}, err
	}
	if tpl.Valid {
		id := int(tpl.Int64)
		e.TemplateID = &id
	}
	return e, nil
}

func templateArg(e models.ScheduleEntry) any {
	if e.TemplateID == nil {
		return nil
	}
	return *e.TemplateID
}

// ListEntries returns entries of a thermostat, optionally filtered to one
// template, ordered by weekday then start time.
func (r *ScheduleSQLite) ListEntries(ctx context.Context, thermostatID int, templateID *int) ([]models.ScheduleEntry, error) {
	conds := []string{"thermostat_id = ?"}
	args := []any{thermostatID}
	if templateID != nil {
		conds = append(conds, "template_id = ?")
		args = append(args, *templateID)
	}

	q := fmt.Sprintf(
		"SELECT %s FROM schedule_entries WHERE %s ORDER BY weekday ASC, start_time ASC, id ASC",
		selectEntryColumns, strings.Join(conds, " AND "),
	)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ScheduleEntry, 0, 16)
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEntry fetches one entry scoped to its thermostat. Returns (nil, nil)
// when it does not exist.
func (r *ScheduleSQLite) GetEntry(ctx context.Context, thermostatID, entryID int) (*models.ScheduleEntry, error) {
	q := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE id=? AND thermostat_id=?", selectEntryColumns)
	row := r.db.QueryRowContext(ctx, q, entryID, thermostatID)
	e, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *ScheduleSQLite) CreateEntry(ctx context.Context, e models.ScheduleEntry) (models.ScheduleEntry, error) {
	res, err := r.db.ExecContext(ctx, insertEntrySQL,
		e.ThermostatID, templateArg(e), e.Weekday, e.Start, e.End, e.TargetTempC,
	)
	if err != nil {
		return models.ScheduleEntry{}, fmt.Errorf("insert schedule entry: %w", err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return models.ScheduleEntry{}, fmt.Errorf("entry last insert id: %w", err)
	}
	e.ID = int(lastID)
	return e, nil
}

// CreateEntries inserts all entries in one transaction: either every entry is
// created or none is.
func (r *ScheduleSQLite) CreateEntries(ctx context.Context, entries []models.ScheduleEntry) ([]models.ScheduleEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk schedule insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	out := make([]models.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		res, err := tx.ExecContext(ctx, insertEntrySQL,
			e.ThermostatID, templateArg(e), e.Weekday, e.Start, e.End, e.TargetTempC,
		)
		if err != nil {
			return nil, fmt.Errorf("insert schedule entry (weekday %d): %w", e.Weekday, err)
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("entry last insert id: %w", err)
		}
		e.ID = int(lastID)
		out = append(out, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk schedule insert: %w", err)
	}
	return out, nil
}

func (r *ScheduleSQLite) UpdateEntry(ctx context.Context, e models.ScheduleEntry) error {
	_, err := r.db.ExecContext(ctx, updateEntrySQL,
		templateArg(e), e.Weekday, e.Start, e.End, e.TargetTempC, e.ID, e.ThermostatID,
	)
	return err
}

func (r *ScheduleSQLite) DeleteEntry(ctx context.Context, thermostatID, entryID int) error {
	_, err := r.db.ExecContext(ctx, deleteEntrySQL, entryID, thermostatID)
	return err
}

func scanTemplate(scan func(dest ...any) error) (models.ScheduleTemplate, error) {
	var t models.ScheduleTemplate
	var desc sql.NullString
	if err := scan(&t.ID, &t.ThermostatID, &t.Name, &desc, &t.IsActive, &t.CreatedAt, &t.EntriesCount); err != nil {
		return models.ScheduleTemplate{}, err
	}
	t.Description = desc.String
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *ScheduleSQLite) ListTemplates(ctx context.Context, thermostatID int) ([]models.ScheduleTemplate, error) {
	rows, err := r.db.QueryContext(ctx, selectTemplatesSQL, thermostatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ScheduleTemplate, 0, 8)
	for rows.Next() {
		t, err := scanTemplate(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ScheduleSQLite) GetTemplate(ctx context.Context, thermostatID, templateID int) (*models.ScheduleTemplate, error) {
	row := r.db.QueryRowContext(ctx, selectTemplateSQL, templateID, thermostatID)
	t, err := scanTemplate(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *ScheduleSQLite) CreateTemplate(ctx context.Context, t models.ScheduleTemplate) (models.ScheduleTemplate, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC()

	res, err := r.db.ExecContext(ctx, insertTemplateSQL,
		t.ThermostatID, t.Name, t.Description, t.IsActive, t.CreatedAt,
	)
	if err != nil {
		return models.ScheduleTemplate{}, fmt.Errorf("insert schedule template %q: %w", t.Name, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return models.ScheduleTemplate{}, fmt.Errorf("template last insert id: %w", err)
	}
	t.ID = int(lastID)
	return t, nil
}

func (r *ScheduleSQLite) UpdateTemplate(ctx context.Context, t models.ScheduleTemplate) error {
	_, err := r.db.ExecContext(ctx, updateTemplateSQL,
		t.Name, t.Description, t.IsActive, t.ID, t.ThermostatID,
	)
	return err
}

func (r *ScheduleSQLite) CountTemplateEntries(ctx context.Context, thermostatID, templateID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countTemplateEntriesSQL, templateID, thermostatID).Scan(&n)
	return n, err
}

// DeleteTemplate removes the template and, when cascade is set, its entries,
// in one transaction. Returns the number of entries removed.
func (r *ScheduleSQLite) DeleteTemplate(ctx context.Context, thermostatID, templateID int, cascade bool) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin template delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var removed int64
	if cascade {
		res, err := tx.ExecContext(ctx, deleteTemplateEntriesSQL, templateID, thermostatID)
		if err != nil {
			return 0, fmt.Errorf("delete template entries: %w", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return 0, err
		}
	}

	if _, err := tx.ExecContext(ctx, deleteTemplateSQL, templateID, thermostatID); err != nil {
		return 0, fmt.Errorf("delete template %d: %w", templateID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit template delete: %w", err)
	}
	return removed, nil
}
