package models

import "time"

// Operating modes a thermostat accepts.
const (
	ModeAuto = "auto"
	ModeHeat = "heat"
	ModeOff  = "off"
)

// Actors that may write the target temperature.
const (
	SourceApp    = "app"
	SourceDevice = "device"
)

// Device-safe bounds for the target temperature, °C (inclusive).
const (
	MinTargetC = 10.0
	MaxTargetC = 30.0
)

// DefaultTargetC is the target a freshly provisioned thermostat starts with.
const DefaultTargetC = 21.0

// Thermostat is a registered device belonging to one user.
type Thermostat struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	OwnerID int    `json:"owner_id"`
}

// ThermostatSetting is the single live setting row of a thermostat.
// LastSource records which actor wrote it last; arbitration is
// last-writer-wins by arrival order, so every write replaces the row.
type ThermostatSetting struct {
	ThermostatID int       `json:"thermostat_id"`
	TargetTempC  float64   `json:"target_temp_c"`
	Mode         string    `json:"mode"`        // auto | heat | off
	LastSource   string    `json:"last_source"` // app | device
	UpdatedAt    time.Time `json:"updated_at"`
}

// ThermostatOverview pairs a thermostat with its current setting for listings.
type ThermostatOverview struct {
	ID       int               `json:"id"`
	Name     string            `json:"name"`
	Settings ThermostatSetting `json:"settings"`
}

// ValidMode reports whether m is one of the accepted operating modes.
func ValidMode(m string) bool {
	switch m {
	case ModeAuto, ModeHeat, ModeOff:
		return true
	}
	return false
}

// ValidSource reports whether s identifies a known writer.
func ValidSource(s string) bool {
	return s == SourceApp || s == SourceDevice
}
