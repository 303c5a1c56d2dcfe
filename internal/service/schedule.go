package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"heatbeat/internal/apperrors"
	"heatbeat/internal/models"
	"heatbeat/internal/repository"
)

// ScheduleEntryParams is the input for creating or updating one entry.
type ScheduleEntryParams struct {
	Weekday     int
	Start       string // "HH:MM"
	End         string // "HH:MM"
	TargetTempC float64
	TemplateID  *int
}

// BulkScheduleParams creates one entry per distinct weekday in a single
// all-or-nothing operation.
type BulkScheduleParams struct {
	Weekdays    []int
	Start       string
	End         string
	TargetTempC float64
	TemplateID  *int
}

// TemplateParams is the input for creating or updating a template.
type TemplateParams struct {
	Name        string
	Description string
	IsActive    bool
}

type ScheduleService struct {
	scheduleRepo   repository.ScheduleRepo
	thermostatRepo repository.ThermostatRepo
}

func NewScheduleService(scheduleRepo repository.ScheduleRepo, thermostatRepo repository.ThermostatRepo) *ScheduleService {
	return &ScheduleService{scheduleRepo: scheduleRepo, thermostatRepo: thermostatRepo}
}

const hhmmLayout = "15:04"

// normalizeHHMM parses and canonicalizes a time-of-day string.
func normalizeHHMM(s, field string) (string, error) {
	t, err := time.Parse(hhmmLayout, strings.TrimSpace(s))
	if err != nil {
		return "", apperrors.NewValidation("invalid %s %q: expected HH:MM", field, s)
	}
	return t.Format(hhmmLayout), nil
}

// validateTimeRange canonicalizes both bounds and requires start < end. The
// range is half-open [start, end); overnight wrapping is not representable.
func validateTimeRange(start, end string) (string, string, error) {
	ns, err := normalizeHHMM(start, "start")
	if err != nil {
		return "", "", err
	}
	ne, err := normalizeHHMM(end, "end")
	if err != nil {
		return "", "", err
	}
	// canonical "HH:MM" compares lexicographically in time order
	if ns >= ne {
		return "", "", apperrors.NewValidation("start %q must be before end %q", ns, ne)
	}
	return ns, ne, nil
}

func validateWeekday(d int) error {
	if d < 0 || d > 6 {
		return apperrors.NewValidation("weekday %d out of range [0, 6]", d)
	}
	return nil
}

func validateScheduleTarget(t float64) error {
	if t < models.MinTargetC || t > models.MaxTargetC {
		return apperrors.NewValidation(
			"target_temp_c %.1f out of range [%.1f, %.1f]", t, models.MinTargetC, models.MaxTargetC)
	}
	return nil
}

// ensureTemplateRef verifies a referenced template exists and belongs to the
// same thermostat.
func (s *ScheduleService) ensureTemplateRef(ctx context.Context, thermostatID int, templateID *int) error {
	if templateID == nil {
		return nil
	}
	tpl, err := s.scheduleRepo.GetTemplate(ctx, thermostatID, *templateID)
	if err != nil {
		return err
	}
	if tpl == nil {
		return apperrors.NewNotFound("schedule template")
	}
	return nil
}

func (s *ScheduleService) ListEntries(ctx context.Context, thermostatID int, templateID *int) ([]models.ScheduleEntry, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return nil, err
	}
	return s.scheduleRepo.ListEntries(ctx, thermostatID, templateID)
}

func (s *ScheduleService) CreateEntry(ctx context.Context, thermostatID int, in ScheduleEntryParams) (models.ScheduleEntry, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return models.ScheduleEntry{}, err
	}
	if err := validateWeekday(in.Weekday); err != nil {
		return models.ScheduleEntry{}, err
	}
	if err := validateScheduleTarget(in.TargetTempC); err != nil {
		return models.ScheduleEntry{}, err
	}
	start, end, err := validateTimeRange(in.Start, in.End)
	if err != nil {
		return models.ScheduleEntry{}, err
	}
	if err := s.ensureTemplateRef(ctx, thermostatID, in.TemplateID); err != nil {
		return models.ScheduleEntry{}, err
	}

	return s.scheduleRepo.CreateEntry(ctx, models.ScheduleEntry{
		ThermostatID: thermostatID,
		TemplateID:   in.TemplateID,
		Weekday:      in.Weekday,
		Start:        start,
		End:          end,
		TargetTempC:  in.TargetTempC,
	})
}

// BulkCreate creates one entry per distinct weekday. The whole batch shares
// one transaction, so a failure leaves no partial set behind.
func (s *ScheduleService) BulkCreate(ctx context.Context, thermostatID int, in BulkScheduleParams) ([]models.ScheduleEntry, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return nil, err
	}
	if len(in.Weekdays) == 0 {
		return nil, apperrors.NewValidation("weekdays must not be empty")
	}

	seen := make(map[int]bool, len(in.Weekdays))
	days := make([]int, 0, len(in.Weekdays))
	for _, d := range in.Weekdays {
		if err := validateWeekday(d); err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Ints(days)

	if err := validateScheduleTarget(in.TargetTempC); err != nil {
		return nil, err
	}
	start, end, err := validateTimeRange(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTemplateRef(ctx, thermostatID, in.TemplateID); err != nil {
		return nil, err
	}

	entries := make([]models.ScheduleEntry, 0, len(days))
	for _, d := range days {
		entries = append(entries, models.ScheduleEntry{
			ThermostatID: thermostatID,
			TemplateID:   in.TemplateID,
			Weekday:      d,
			Start:        start,
			End:          end,
			TargetTempC:  in.TargetTempC,
		})
	}

	return s.scheduleRepo.CreateEntries(ctx, entries)
}

func (s *ScheduleService) UpdateEntry(ctx context.Context, thermostatID, entryID int, in ScheduleEntryParams) (models.ScheduleEntry, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return models.ScheduleEntry{}, err
	}
	cur, err := s.scheduleRepo.GetEntry(ctx, thermostatID, entryID)
	if err != nil {
		return models.ScheduleEntry{}, err
	}
	if cur == nil {
		return models.ScheduleEntry{}, apperrors.NewNotFound("schedule entry")
	}
	if err := validateWeekday(in.Weekday); err != nil {
		return models.ScheduleEntry{}, err
	}
	if err := validateScheduleTarget(in.TargetTempC); err != nil {
		return models.ScheduleEntry{}, err
	}
	start, end, err := validateTimeRange(in.Start, in.End)
	if err != nil {
		return models.ScheduleEntry{}, err
	}
	if err := s.ensureTemplateRef(ctx, thermostatID, in.TemplateID); err != nil {
		return models.ScheduleEntry{}, err
	}

	updated := models.ScheduleEntry{
		ID:           entryID,
		ThermostatID: thermostatID,
		TemplateID:   in.TemplateID,
		Weekday:      in.Weekday,
		Start:        start,
		End:          end,
		TargetTempC:  in.TargetTempC,
	}
	if err := s.scheduleRepo.UpdateEntry(ctx, updated); err != nil {
		return models.ScheduleEntry{}, err
	}
	return updated, nil
}

func (s *ScheduleService) DeleteEntry(ctx context.Context, thermostatID, entryID int) error {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return err
	}
	cur, err := s.scheduleRepo.GetEntry(ctx, thermostatID, entryID)
	if err != nil {
		return err
	}
	if cur == nil {
		return apperrors.NewNotFound("schedule entry")
	}
	return s.scheduleRepo.DeleteEntry(ctx, thermostatID, entryID)
}

func (s *ScheduleService) ListTemplates(ctx context.Context, thermostatID int) ([]models.ScheduleTemplate, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return nil, err
	}
	return s.scheduleRepo.ListTemplates(ctx, thermostatID)
}

func (s *ScheduleService) CreateTemplate(ctx context.Context, thermostatID int, in TemplateParams) (models.ScheduleTemplate, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return models.ScheduleTemplate{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.ScheduleTemplate{}, apperrors.NewValidation("template name must not be empty")
	}

	return s.scheduleRepo.CreateTemplate(ctx, models.ScheduleTemplate{
		ThermostatID: thermostatID,
		Name:         name,
		Description:  in.Description,
		IsActive:     in.IsActive,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *ScheduleService) UpdateTemplate(ctx context.Context, thermostatID, templateID int, in TemplateParams) (models.ScheduleTemplate, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return models.ScheduleTemplate{}, err
	}
	cur, err := s.scheduleRepo.GetTemplate(ctx, thermostatID, templateID)
	if err != nil {
		return models.ScheduleTemplate{}, err
	}
	if cur == nil {
		return models.ScheduleTemplate{}, apperrors.NewNotFound("schedule template")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.ScheduleTemplate{}, apperrors.NewValidation("template name must not be empty")
	}

	updated := *cur
	updated.Name = name
	updated.Description = in.Description
	updated.IsActive = in.IsActive
	if err := s.scheduleRepo.UpdateTemplate(ctx, updated); err != nil {
		return models.ScheduleTemplate{}, err
	}
	return updated, nil
}

// DeleteTemplate refuses to delete a template that still has entries attached
// unless deleteEntries is set, reporting the blocking count so the caller can
// re-issue the delete with the cascade flag.
func (s *ScheduleService) DeleteTemplate(ctx context.Context, thermostatID, templateID int, deleteEntries bool) (int, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return 0, err
	}
	cur, err := s.scheduleRepo.GetTemplate(ctx, thermostatID, templateID)
	if err != nil {
		return 0, err
	}
	if cur == nil {
		return 0, apperrors.NewNotFound("schedule template")
	}

	count, err := s.scheduleRepo.CountTemplateEntries(ctx, thermostatID, templateID)
	if err != nil {
		return 0, err
	}
	if count > 0 && !deleteEntries {
		return 0, apperrors.NewReferentialConflict("schedule template", count)
	}

	removed, err := s.scheduleRepo.DeleteTemplate(ctx, thermostatID, templateID, deleteEntries)
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}
