package service

import (
	"context"
	"time"

	"heatbeat/internal/apperrors"
	"heatbeat/internal/hub"
	"heatbeat/internal/models"
	"heatbeat/internal/repository"

	"github.com/mitchellh/mapstructure"
)

// DeviceReport is the canonical decoded form of a device report. The wire
// accepts two shapes (see DecodeDeviceReport); both normalize to this.
type DeviceReport struct {
	Reading models.Reading
	// TargetTempC is the optional setpoint piggybacked on an extended report,
	// set when the user turned the dial on the thermostat itself.
	TargetTempC *float64
}

// legacyReportShape is the original firmware payload.
type legacyReportShape struct {
	TemperatureC       float64  `mapstructure:"temperature_c"`
	HumidityPct        *float64 `mapstructure:"humidity_pct"`
	PressureHPa        *float64 `mapstructure:"pressure_hpa"`
	WindowOpenDetected bool     `mapstructure:"window_open_detected"`
}

// extendedReportShape adds battery/RSSI diagnostics and the optional setpoint.
type extendedReportShape struct {
	TemperatureC       float64  `mapstructure:"temperature_c"`
	HumidityPct        *float64 `mapstructure:"humidity_pct"`
	PressureHPa        *float64 `mapstructure:"pressure_hpa"`
	BatteryV           *float64 `mapstructure:"battery_v"`
	RSSIdBm            *int     `mapstructure:"rssi_dbm"`
	WindowOpenDetected bool     `mapstructure:"window_open_detected"`
	TargetTempC        *float64 `mapstructure:"target_temp_c"`
}

func decodeShape(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true, // JSON numbers arrive as float64
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return apperrors.NewValidation("malformed device report: %v", err)
	}
	return nil
}

// DecodeDeviceReport turns a raw JSON object into the canonical report. The
// shape is detected by field presence: battery_v, rssi_dbm, or target_temp_c
// mark the extended shape, anything else is treated as the legacy one.
func DecodeDeviceReport(raw map[string]any) (DeviceReport, error) {
	if _, ok := raw["temperature_c"]; !ok {
		return DeviceReport{}, apperrors.NewValidation("temperature_c is required")
	}

	extended := false
	for _, key := range []string{"battery_v", "rssi_dbm", "target_temp_c"} {
		if _, ok := raw[key]; ok {
			extended = true
			break
		}
	}

	if extended {
		var shape extendedReportShape
		if err := decodeShape(raw, &shape); err != nil {
			return DeviceReport{}, err
		}
		return DeviceReport{
			Reading: models.Reading{
				TemperatureC:       shape.TemperatureC,
				HumidityPct:        shape.HumidityPct,
				PressureHPa:        shape.PressureHPa,
				BatteryV:           shape.BatteryV,
				RSSIdBm:            shape.RSSIdBm,
				WindowOpenDetected: shape.WindowOpenDetected,
			},
			TargetTempC: shape.TargetTempC,
		}, nil
	}

	var shape legacyReportShape
	if err := decodeShape(raw, &shape); err != nil {
		return DeviceReport{}, err
	}
	return DeviceReport{
		Reading: models.Reading{
			TemperatureC:       shape.TemperatureC,
			HumidityPct:        shape.HumidityPct,
			PressureHPa:        shape.PressureHPa,
			WindowOpenDetected: shape.WindowOpenDetected,
		},
	}, nil
}

const (
	defaultReadingLimit = 50
	maxReadingLimit     = 500
)

type TelemetryService struct {
	readingRepo    repository.ReadingRepo
	thermostatRepo repository.ThermostatRepo
	settings       Settings
	notifier       Notifier
}

func NewTelemetryService(readingRepo repository.ReadingRepo, thermostatRepo repository.ThermostatRepo, settings Settings, notifier Notifier) *TelemetryService {
	return &TelemetryService{
		readingRepo:    readingRepo,
		thermostatRepo: thermostatRepo,
		settings:       settings,
		notifier:       notifier,
	}
}

// Record stores the reading, pushes a telemetry event, and then feeds the
// optional setpoint into arbitration as a device write. The reading is kept
// even when the setpoint is rejected; the device sees the rejection.
func (s *TelemetryService) Record(ctx context.Context, thermostatID int, rep DeviceReport) (models.Reading, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return models.Reading{}, err
	}

	reading := rep.Reading
	reading.ThermostatID = thermostatID
	reading.CreatedAt = time.Now().UTC()

	stored, err := s.readingRepo.Append(ctx, reading)
	if err != nil {
		return models.Reading{}, err
	}

	s.notifier.Publish(thermostatID, hub.Event{Type: hub.EventTelemetry, Data: stored})

	if rep.TargetTempC != nil {
		if _, err := s.settings.ApplyWrite(ctx, WriteParams{
			ThermostatID: thermostatID,
			TargetTempC:  *rep.TargetTempC,
			Source:       models.SourceDevice,
		}); err != nil {
			return stored, err
		}
	}

	return stored, nil
}

func (s *TelemetryService) ListRecent(ctx context.Context, thermostatID, limit int) ([]models.Reading, error) {
	if err := ensureThermostat(ctx, s.thermostatRepo, thermostatID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultReadingLimit
	}
	if limit > maxReadingLimit {
		limit = maxReadingLimit
	}
	return s.readingRepo.ListRecent(ctx, thermostatID, limit)
}
