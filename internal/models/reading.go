package models

import "time"

// Reading is one telemetry sample pushed by a device. Optional fields are
// pointers so "not reported" survives the round trip through storage.
type Reading struct {
	ID                 int       `json:"id"`
	ThermostatID       int       `json:"-"`
	TemperatureC       float64   `json:"temperature_c"`
	HumidityPct        *float64  `json:"humidity_pct,omitempty"`
	PressureHPa        *float64  `json:"pressure_hpa,omitempty"`
	BatteryV           *float64  `json:"battery_v,omitempty"`
	RSSIdBm            *int      `json:"rssi_dbm,omitempty"`
	WindowOpenDetected bool      `json:"window_open_detected"`
	CreatedAt          time.Time `json:"created_at"`
}
