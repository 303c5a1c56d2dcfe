package service

import (
	"context"
	"time"

	"heatbeat/internal/hub"
	"heatbeat/internal/models"
	"heatbeat/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, email, password string) (int, error)
	GenerateToken(ctx context.Context, email, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Thermostats covers registration and ownership checks for app clients.
type Thermostats interface {
	List(ctx context.Context, ownerID int) ([]models.ThermostatOverview, error)
	Create(ctx context.Context, ownerID int, name string) (models.Thermostat, error)
	// Authorize returns NotFound when the thermostat does not exist or belongs
	// to another owner, so callers cannot probe for foreign thermostats.
	Authorize(ctx context.Context, ownerID, thermostatID int) error
}

// Settings is the arbitration service: last-writer-wins target temperature
// writes with source attribution, plus the queue/notification side effects.
type Settings interface {
	Get(ctx context.Context, thermostatID int) (models.ThermostatSetting, error)
	ApplyWrite(ctx context.Context, p WriteParams) (models.ThermostatSetting, error)
}

// Commands is the per-device delivery log with cursor-based pull.
type Commands interface {
	Enqueue(ctx context.Context, thermostatID int, targetTempC float64) (models.Command, error)
	Pull(ctx context.Context, thermostatID int, since int64) ([]models.Command, error)
}

// Schedule exposes template and entry management. Storage only: nothing in
// this service ever evaluates or applies a schedule.
type Schedule interface {
	ListEntries(ctx context.Context, thermostatID int, templateID *int) ([]models.ScheduleEntry, error)
	CreateEntry(ctx context.Context, thermostatID int, in ScheduleEntryParams) (models.ScheduleEntry, error)
	BulkCreate(ctx context.Context, thermostatID int, in BulkScheduleParams) ([]models.ScheduleEntry, error)
	UpdateEntry(ctx context.Context, thermostatID, entryID int, in ScheduleEntryParams) (models.ScheduleEntry, error)
	DeleteEntry(ctx context.Context, thermostatID, entryID int) error

	ListTemplates(ctx context.Context, thermostatID int) ([]models.ScheduleTemplate, error)
	CreateTemplate(ctx context.Context, thermostatID int, in TemplateParams) (models.ScheduleTemplate, error)
	UpdateTemplate(ctx context.Context, thermostatID, templateID int, in TemplateParams) (models.ScheduleTemplate, error)
	// DeleteTemplate rejects with ReferentialConflict while entries are
	// attached, unless deleteEntries is set. Returns removed entry count.
	DeleteTemplate(ctx context.Context, thermostatID, templateID int, deleteEntries bool) (int, error)
}

// Telemetry ingests device reports and serves recent readings.
type Telemetry interface {
	Record(ctx context.Context, thermostatID int, rep DeviceReport) (models.Reading, error)
	ListRecent(ctx context.Context, thermostatID, limit int) ([]models.Reading, error)
}

// Retention prunes delivered commands in the background. Stop via context
// cancellation in main() for graceful shutdown.
type Retention interface {
	Run(ctx context.Context, tick time.Duration)
	Sweep(ctx context.Context) (int64, error)
}

// Notifier is the outbound side of the live channel services publish to.
// *hub.Hub satisfies it; tests substitute a recorder.
type Notifier interface {
	Publish(thermostatID int, ev hub.Event)
}

type Service struct {
	Thermostats
	Settings
	Commands
	Schedule
	Telemetry
	Retention
	Authorization
}

// AuthConfig carries the JWT signing material from configuration.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

// NewService wires the repository layer and the notification hub into the
// concrete services.
func NewService(repos *repository.Repository, notifier Notifier, authCfg AuthConfig) *Service {
	commands := NewCommandService(repos.Commands, repos.Thermostats)
	settings := NewSettingService(repos.Settings, repos.Thermostats, commands, notifier)
	return &Service{
		Thermostats:   NewThermostatService(repos.Thermostats, repos.Settings),
		Settings:      settings,
		Commands:      commands,
		Schedule:      NewScheduleService(repos.Schedule, repos.Thermostats),
		Telemetry:     NewTelemetryService(repos.Readings, repos.Thermostats, settings, notifier),
		Retention:     NewRetentionService(repos.Commands),
		Authorization: NewAuthService(repos.Auth, repos.Thermostats, repos.Settings, authCfg),
	}
}
