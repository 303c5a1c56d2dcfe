package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// InitDB opens/creates the SQLite DB file and ensures all tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite tolerates a single writer; keep the pool tiny.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

const schemaThermostats = `
CREATE TABLE IF NOT EXISTS thermostats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    owner_id INTEGER NOT NULL REFERENCES users(id)
);
`

const schemaThermostatSettings = `
CREATE TABLE IF NOT EXISTS thermostat_settings (
    thermostat_id INTEGER PRIMARY KEY REFERENCES thermostats(id),
    target_temp_c REAL NOT NULL,
    mode TEXT NOT NULL,
    last_source TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaCommands = `
CREATE TABLE IF NOT EXISTS commands (
    id TEXT NOT NULL UNIQUE,
    thermostat_id INTEGER NOT NULL REFERENCES thermostats(id),
    ordinal INTEGER NOT NULL,
    kind TEXT NOT NULL,
    target_temp_c REAL NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (thermostat_id, ordinal)
);
`

const schemaDeviceCursors = `
CREATE TABLE IF NOT EXISTS device_cursors (
    thermostat_id INTEGER PRIMARY KEY REFERENCES thermostats(id),
    last_ordinal INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaScheduleTemplates = `
CREATE TABLE IF NOT EXISTS schedule_templates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    thermostat_id INTEGER NOT NULL REFERENCES thermostats(id),
    name TEXT NOT NULL,
    description TEXT,
    is_active BOOLEAN NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL
);
`

const schemaScheduleEntries = `
CREATE TABLE IF NOT EXISTS schedule_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    thermostat_id INTEGER NOT NULL REFERENCES thermostats(id),
    template_id INTEGER REFERENCES schedule_templates(id),
    weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    target_temp_c REAL NOT NULL
);
`

const schemaReadings = `
CREATE TABLE IF NOT EXISTS readings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    thermostat_id INTEGER NOT NULL REFERENCES thermostats(id),
    temperature_c REAL NOT NULL,
    humidity_pct REAL,
    pressure_hpa REAL,
    battery_v REAL,
    rssi_dbm INTEGER,
    window_open_detected BOOLEAN NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
`

const indexReadingsByThermostat = `
CREATE INDEX IF NOT EXISTS idx_readings_thermostat_created
    ON readings(thermostat_id, created_at);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaUsers,
		schemaThermostats,
		schemaThermostatSettings,
		schemaCommands,
		schemaDeviceCursors,
		schemaScheduleTemplates,
		schemaScheduleEntries,
		schemaReadings,
		indexReadingsByThermostat,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
