package repository

import (
	"context"
	"database/sql"
	"time"

	"heatbeat/internal/models"
)

type Authorization interface {
	Create(email, hash string) (int, error)
	GetByEmail(email string) (*models.User, error)
}

type ThermostatRepo interface {
	Create(ctx context.Context, t models.Thermostat) (models.Thermostat, error)
	// GetByID returns (nil, nil) when the thermostat does not exist.
	GetByID(ctx context.Context, id int) (*models.Thermostat, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.Thermostat, error)
}

type SettingRepo interface {
	Save(ctx context.Context, s models.ThermostatSetting) error
	// Load returns (nil, nil) when no setting row exists yet.
	Load(ctx context.Context, thermostatID int) (*models.ThermostatSetting, error)
}

type CommandRepo interface {
	// Append adds a command with ordinal = previous max + 1 for the thermostat.
	Append(ctx context.Context, thermostatID int, kind string, targetTempC float64, at time.Time) (models.Command, error)
	// ListSince returns commands with ordinal > since, ascending.
	ListSince(ctx context.Context, thermostatID int, since int64) ([]models.Command, error)
	// RecordCursor remembers the highest ordinal a device reported having
	// processed; it never moves a cursor backwards.
	RecordCursor(ctx context.Context, thermostatID int, ordinal int64, at time.Time) error
	Cursors(ctx context.Context) (map[int]int64, error)
	// DeleteThrough removes commands with ordinal <= through for a thermostat.
	DeleteThrough(ctx context.Context, thermostatID int, through int64) (int64, error)
}

type ScheduleRepo interface {
	ListEntries(ctx context.Context, thermostatID int, templateID *int) ([]models.ScheduleEntry, error)
	// GetEntry returns (nil, nil) when the entry does not exist for the thermostat.
	GetEntry(ctx context.Context, thermostatID, entryID int) (*models.ScheduleEntry, error)
	CreateEntry(ctx context.Context, e models.ScheduleEntry) (models.ScheduleEntry, error)
	// CreateEntries inserts all entries in a single transaction (all or nothing).
	CreateEntries(ctx context.Context, entries []models.ScheduleEntry) ([]models.ScheduleEntry, error)
	UpdateEntry(ctx context.Context, e models.ScheduleEntry) error
	DeleteEntry(ctx context.Context, thermostatID, entryID int) error

	ListTemplates(ctx context.Context, thermostatID int) ([]models.ScheduleTemplate, error)
	// GetTemplate returns (nil, nil) when the template does not exist for the thermostat.
	GetTemplate(ctx context.Context, thermostatID, templateID int) (*models.ScheduleTemplate, error)
	CreateTemplate(ctx context.Context, t models.ScheduleTemplate) (models.ScheduleTemplate, error)
	UpdateTemplate(ctx context.Context, t models.ScheduleTemplate) error
	CountTemplateEntries(ctx context.Context, thermostatID, templateID int) (int, error)
	// DeleteTemplate removes the template, cascading to its entries when asked.
	// Returns the number of entries removed.
	DeleteTemplate(ctx context.Context, thermostatID, templateID int, cascade bool) (int64, error)
}

type ReadingRepo interface {
	Append(ctx context.Context, r models.Reading) (models.Reading, error)
	ListRecent(ctx context.Context, thermostatID, limit int) ([]models.Reading, error)
}

type Repository struct {
	Thermostats ThermostatRepo
	Settings    SettingRepo
	Commands    CommandRepo
	Schedule    ScheduleRepo
	Readings    ReadingRepo
	Auth        Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Thermostats: NewThermostatSQLite(db),
		Settings:    NewSettingSQLite(db),
		Commands:    NewCommandSQLite(db),
		Schedule:    NewScheduleSQLite(db),
		Readings:    NewReadingSQLite(db),
		Auth:        NewUserRepository(db),
	}
}
