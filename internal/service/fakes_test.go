package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"heatbeat/internal/hub"
	"heatbeat/internal/models"
)

// Shared in-memory fakes for the repository interfaces.

type fakeThermostatRepo struct {
	thermostats map[int]models.Thermostat
	getErr      error
	nextID      int
}

func newFakeThermostatRepo(ids ...int) *fakeThermostatRepo {
	f := &fakeThermostatRepo{thermostats: make(map[int]models.Thermostat), nextID: 1}
	for _, id := range ids {
		f.thermostats[id] = models.Thermostat{ID: id, Name: "Living room", OwnerID: 1}
		if id >= f.nextID {
			f.nextID = id + 1
		}
	}
	return f
}

func (f *fakeThermostatRepo) Create(ctx context.Context, t models.Thermostat) (models.Thermostat, error) {
	t.ID = f.nextID
	f.nextID++
	f.thermostats[t.ID] = t
	return t, nil
}

func (f *fakeThermostatRepo) GetByID(ctx context.Context, id int) (*models.Thermostat, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.thermostats[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeThermostatRepo) ListByOwner(ctx context.Context, ownerID int) ([]models.Thermostat, error) {
	var out []models.Thermostat
	for _, t := range f.thermostats {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeSettingRepo struct {
	settings map[int]models.ThermostatSetting
	saveErr  error
	loadErr  error
	saves    []models.ThermostatSetting
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{settings: make(map[int]models.ThermostatSetting)}
}

func (f *fakeSettingRepo) Save(ctx context.Context, s models.ThermostatSetting) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.settings[s.ThermostatID] = s
	f.saves = append(f.saves, s)
	return nil
}

func (f *fakeSettingRepo) Load(ctx context.Context, thermostatID int) (*models.ThermostatSetting, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	s, ok := f.settings[thermostatID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

type fakeCommandRepo struct {
	mu        sync.Mutex
	commands  map[int][]models.Command
	cursors   map[int]int64
	appendErr error
	listErr   error
}

func newFakeCommandRepo() *fakeCommandRepo {
	return &fakeCommandRepo{
		commands: make(map[int][]models.Command),
		cursors:  make(map[int]int64),
	}
}

func (f *fakeCommandRepo) Append(ctx context.Context, thermostatID int, kind string, targetTempC float64, at time.Time) (models.Command, error) {
	if f.appendErr != nil {
		return models.Command{}, f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var max int64
	for _, c := range f.commands[thermostatID] {
		if c.Ordinal > max {
			max = c.Ordinal
		}
	}
	cmd := models.Command{
		ThermostatID: thermostatID,
		Ordinal:      max + 1,
		Kind:         kind,
		TargetTempC:  targetTempC,
		CreatedAt:    at,
	}
	f.commands[thermostatID] = append(f.commands[thermostatID], cmd)
	return cmd, nil
}

func (f *fakeCommandRepo) ListSince(ctx context.Context, thermostatID int, since int64) ([]models.Command, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Command
	for _, c := range f.commands[thermostatID] {
		if c.Ordinal > since {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (f *fakeCommandRepo) RecordCursor(ctx context.Context, thermostatID int, ordinal int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ordinal > f.cursors[thermostatID] {
		f.cursors[thermostatID] = ordinal
	}
	return nil
}

func (f *fakeCommandRepo) Cursors(ctx context.Context) (map[int]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]int64, len(f.cursors))
	for k, v := range f.cursors {
		out[k] = v
	}
	return out, nil
}

func (f *fakeCommandRepo) DeleteThrough(ctx context.Context, thermostatID int, through int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []models.Command
	var removed int64
	for _, c := range f.commands[thermostatID] {
		if c.Ordinal <= through {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	f.commands[thermostatID] = kept
	return removed, nil
}

type fakeScheduleRepo struct {
	entries     map[int]models.ScheduleEntry
	templates   map[int]models.ScheduleTemplate
	nextEntryID int
	nextTplID   int
	createErr   error
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		entries:     make(map[int]models.ScheduleEntry),
		templates:   make(map[int]models.ScheduleTemplate),
		nextEntryID: 1,
		nextTplID:   1,
	}
}

func (f *fakeScheduleRepo) ListEntries(ctx context.Context, thermostatID int, templateID *int) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, e := range f.entries {
		if e.ThermostatID != thermostatID {
			continue
		}
		if templateID != nil && (e.TemplateID == nil || *e.TemplateID != *templateID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeScheduleRepo) GetEntry(ctx context.Context, thermostatID, entryID int) (*models.ScheduleEntry, error) {
	e, ok := f.entries[entryID]
	if !ok || e.ThermostatID != thermostatID {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeScheduleRepo) CreateEntry(ctx context.Context, e models.ScheduleEntry) (models.ScheduleEntry, error) {
	if f.createErr != nil {
		return models.ScheduleEntry{}, f.createErr
	}
	e.ID = f.nextEntryID
	f.nextEntryID++
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeScheduleRepo) CreateEntries(ctx context.Context, entries []models.ScheduleEntry) ([]models.ScheduleEntry, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := make([]models.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		created, _ := f.CreateEntry(ctx, e)
		out = append(out, created)
	}
	return out, nil
}

func (f *fakeScheduleRepo) UpdateEntry(ctx context.Context, e models.ScheduleEntry) error {
	f.entries[e.ID] = e
	return nil
}

func (f *fakeScheduleRepo) DeleteEntry(ctx context.Context, thermostatID, entryID int) error {
	delete(f.entries, entryID)
	return nil
}

func (f *fakeScheduleRepo) ListTemplates(ctx context.Context, thermostatID int) ([]models.ScheduleTemplate, error) {
	var out []models.ScheduleTemplate
	for _, t := range f.templates {
		if t.ThermostatID == thermostatID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeScheduleRepo) GetTemplate(ctx context.Context, thermostatID, templateID int) (*models.ScheduleTemplate, error) {
	t, ok := f.templates[templateID]
	if !ok || t.ThermostatID != thermostatID {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeScheduleRepo) CreateTemplate(ctx context.Context, t models.ScheduleTemplate) (models.ScheduleTemplate, error) {
	t.ID = f.nextTplID
	f.nextTplID++
	f.templates[t.ID] = t
	return t, nil
}

func (f *fakeScheduleRepo) UpdateTemplate(ctx context.Context, t models.ScheduleTemplate) error {
	f.templates[t.ID] = t
	return nil
}

func (f *fakeScheduleRepo) CountTemplateEntries(ctx context.Context, thermostatID, templateID int) (int, error) {
	n := 0
	for _, e := range f.entries {
		if e.ThermostatID == thermostatID && e.TemplateID != nil && *e.TemplateID == templateID {
			n++
		}
	}
	return n, nil
}

func (f *fakeScheduleRepo) DeleteTemplate(ctx context.Context, thermostatID, templateID int, cascade bool) (int64, error) {
	var removed int64
	if cascade {
		for id, e := range f.entries {
			if e.ThermostatID == thermostatID && e.TemplateID != nil && *e.TemplateID == templateID {
				delete(f.entries, id)
				removed++
			}
		}
	}
	delete(f.templates, templateID)
	return removed, nil
}

type fakeReadingRepo struct {
	readings  []models.Reading
	appendErr error
	nextID    int
}

func newFakeReadingRepo() *fakeReadingRepo {
	return &fakeReadingRepo{nextID: 1}
}

func (f *fakeReadingRepo) Append(ctx context.Context, r models.Reading) (models.Reading, error) {
	if f.appendErr != nil {
		return models.Reading{}, f.appendErr
	}
	r.ID = f.nextID
	f.nextID++
	f.readings = append(f.readings, r)
	return r, nil
}

func (f *fakeReadingRepo) ListRecent(ctx context.Context, thermostatID, limit int) ([]models.Reading, error) {
	var out []models.Reading
	for i := len(f.readings) - 1; i >= 0 && len(out) < limit; i-- {
		if f.readings[i].ThermostatID == thermostatID {
			out = append(out, f.readings[i])
		}
	}
	return out, nil
}

type fakeAuthRepo struct {
	users  map[string]models.User
	nextID int
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: make(map[string]models.User), nextID: 1}
}

func (f *fakeAuthRepo) Create(email, hash string) (int, error) {
	u := models.User{ID: f.nextID, Email: email, PasswordHash: hash}
	f.nextID++
	f.users[email] = u
	return u.ID, nil
}

func (f *fakeAuthRepo) GetByEmail(email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []hub.Event
	ids    []int
}

func (n *recordingNotifier) Publish(thermostatID int, ev hub.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, thermostatID)
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) last() (hub.Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return hub.Event{}, false
	}
	return n.events[len(n.events)-1], true
}
