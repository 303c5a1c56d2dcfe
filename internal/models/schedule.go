package models

import "time"

// ScheduleTemplate is a named grouping of schedule entries. It is purely
// organizational and carries no scheduling semantics of its own.
type ScheduleTemplate struct {
	ID           int       `json:"id"`
	ThermostatID int       `json:"-"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	EntriesCount int       `json:"entries_count"`
}

// ScheduleEntry describes the intended target temperature for one weekday
// over the half-open time range [Start, End). A nil TemplateID means the
// entry is unfiled.
type ScheduleEntry struct {
	ID           int     `json:"id"`
	ThermostatID int     `json:"-"`
	TemplateID   *int    `json:"template_id,omitempty"`
	Weekday      int     `json:"weekday"` // 0 = Monday .. 6 = Sunday
	Start        string  `json:"start"`   // "HH:MM"
	End          string  `json:"end"`     // "HH:MM"
	TargetTempC  float64 `json:"target_temp_c"`
}
