package models

import "time"

// CommandSetTarget is the only command kind currently delivered to devices.
const CommandSetTarget = "set_target"

// Command is one immutable entry in a thermostat's delivery log. Ordinal is
// per-thermostat, strictly increasing and never reused; a device persists the
// highest ordinal it has processed and passes it as its pull cursor. ID embeds
// the ordinal and is globally unique.
type Command struct {
	ID           string    `json:"id"`
	ThermostatID int       `json:"-"`
	Ordinal      int64     `json:"ordinal"`
	Kind         string    `json:"type"`
	TargetTempC  float64   `json:"target_temp_c"`
	CreatedAt    time.Time `json:"created_at"`
}
