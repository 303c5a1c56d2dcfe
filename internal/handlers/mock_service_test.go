package handlers

import (
	"context"
	"net/http"

	"heatbeat/internal/hub"
	"heatbeat/internal/models"
	"heatbeat/internal/service"

	"github.com/gin-gonic/gin"
)

const testDeviceToken = "test-device-token"

// Hand-rolled mocks for the service interfaces used by handler tests.

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error
}

func (m *mockAuth) SignUp(ctx context.Context, email, password string) (int, error) {
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, email, password string) (string, error) {
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	return m.parseID, m.parseErr
}

type mockThermostats struct {
	list         []models.ThermostatOverview
	listErr      error
	created      models.Thermostat
	createErr    error
	authorizeErr error
	authorized   [][2]int
}

func (m *mockThermostats) List(ctx context.Context, ownerID int) ([]models.ThermostatOverview, error) {
	return m.list, m.listErr
}
func (m *mockThermostats) Create(ctx context.Context, ownerID int, name string) (models.Thermostat, error) {
	return m.created, m.createErr
}
func (m *mockThermostats) Authorize(ctx context.Context, ownerID, thermostatID int) error {
	m.authorized = append(m.authorized, [2]int{ownerID, thermostatID})
	return m.authorizeErr
}

type mockSettings struct {
	setting  models.ThermostatSetting
	getErr   error
	writeErr error
	writes   []service.WriteParams
}

func (m *mockSettings) Get(ctx context.Context, thermostatID int) (models.ThermostatSetting, error) {
	return m.setting, m.getErr
}
func (m *mockSettings) ApplyWrite(ctx context.Context, p service.WriteParams) (models.ThermostatSetting, error) {
	m.writes = append(m.writes, p)
	if m.writeErr != nil {
		return models.ThermostatSetting{}, m.writeErr
	}
	return m.setting, nil
}

type mockCommands struct {
	enqueued   models.Command
	enqueueErr error
	pulled     []models.Command
	pullErr    error
	pullSince  []int64
}

func (m *mockCommands) Enqueue(ctx context.Context, thermostatID int, targetTempC float64) (models.Command, error) {
	return m.enqueued, m.enqueueErr
}
func (m *mockCommands) Pull(ctx context.Context, thermostatID int, since int64) ([]models.Command, error) {
	m.pullSince = append(m.pullSince, since)
	return m.pulled, m.pullErr
}

type mockSchedule struct {
	entries      []models.ScheduleEntry
	entry        models.ScheduleEntry
	templates    []models.ScheduleTemplate
	template     models.ScheduleTemplate
	deleteCount  int
	err          error
	bulkParams   []service.BulkScheduleParams
	deleteCalled [][2]any // templateID, cascade
}

func (m *mockSchedule) ListEntries(ctx context.Context, thermostatID int, templateID *int) ([]models.ScheduleEntry, error) {
	return m.entries, m.err
}
func (m *mockSchedule) CreateEntry(ctx context.Context, thermostatID int, in service.ScheduleEntryParams) (models.ScheduleEntry, error) {
	return m.entry, m.err
}
func (m *mockSchedule) BulkCreate(ctx context.Context, thermostatID int, in service.BulkScheduleParams) ([]models.ScheduleEntry, error) {
	m.bulkParams = append(m.bulkParams, in)
	return m.entries, m.err
}
func (m *mockSchedule) UpdateEntry(ctx context.Context, thermostatID, entryID int, in service.ScheduleEntryParams) (models.ScheduleEntry, error) {
	return m.entry, m.err
}
func (m *mockSchedule) DeleteEntry(ctx context.Context, thermostatID, entryID int) error {
	return m.err
}
func (m *mockSchedule) ListTemplates(ctx context.Context, thermostatID int) ([]models.ScheduleTemplate, error) {
	return m.templates, m.err
}
func (m *mockSchedule) CreateTemplate(ctx context.Context, thermostatID int, in service.TemplateParams) (models.ScheduleTemplate, error) {
	return m.template, m.err
}
func (m *mockSchedule) UpdateTemplate(ctx context.Context, thermostatID, templateID int, in service.TemplateParams) (models.ScheduleTemplate, error) {
	return m.template, m.err
}
func (m *mockSchedule) DeleteTemplate(ctx context.Context, thermostatID, templateID int, deleteEntries bool) (int, error) {
	m.deleteCalled = append(m.deleteCalled, [2]any{templateID, deleteEntries})
	return m.deleteCount, m.err
}

type mockTelemetry struct {
	stored   models.Reading
	readings []models.Reading
	err      error
	reports  []service.DeviceReport
	limits   []int
}

func (m *mockTelemetry) Record(ctx context.Context, thermostatID int, rep service.DeviceReport) (models.Reading, error) {
	m.reports = append(m.reports, rep)
	return m.stored, m.err
}
func (m *mockTelemetry) ListRecent(ctx context.Context, thermostatID, limit int) ([]models.Reading, error) {
	m.limits = append(m.limits, limit)
	return m.readings, m.err
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, hub.New(), nil, testDeviceToken)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	h.Set("Content-Type", "application/json")
	return h
}
