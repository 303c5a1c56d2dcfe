package handlers

import (
	"net/http"
	"strconv"

	"heatbeat/internal/models"
	"heatbeat/internal/service"

	"github.com/gin-gonic/gin"
)

// SettingsRequest is the app-side write payload for a thermostat setting.
type SettingsRequest struct {
	// Target temperature in Celsius, 10.0–30.0
	TargetTempC float64 `json:"target_temp_c" binding:"required" example:"21.5"`
	// Mode to set. Allowed: auto, heat, off. Empty keeps the current mode.
	Mode string `json:"mode,omitempty" example:"auto"`
}

// CreateThermostatRequest names a new thermostat.
type CreateThermostatRequest struct {
	Name string `json:"name" example:"Bedroom"`
}

// @Summary      List thermostats with current settings
// @Tags         thermostats
// @Produce      json
// @Success      200  {array}   models.ThermostatOverview
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/thermostats [get]
// @Security     BearerAuth
func (h *Handler) listThermostats(c *gin.Context) {
	userID := c.GetInt(ctxUserID)
	out, err := h.services.Thermostats.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, "thermostats_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Register a thermostat
// @Tags         thermostats
// @Accept       json
// @Produce      json
// @Param        body  body  CreateThermostatRequest  true  "Thermostat"
// @Success      200  {object}  models.Thermostat
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/thermostats [post]
// @Security     BearerAuth
func (h *Handler) createThermostat(c *gin.Context) {
	var req CreateThermostatRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	userID := c.GetInt(ctxUserID)
	t, err := h.services.Thermostats.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		h.respondError(c, "thermostat_create_failed", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Get current setting
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.ThermostatSetting
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	setting, err := h.services.Settings.Get(c.Request.Context(), thermostatID(c))
	if err != nil {
		h.respondError(c, "settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// @Summary      Write target temperature and mode
// @Description  App-originated write: last-writer-wins, queued for the device
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  SettingsRequest  true  "Setting"
// @Success      200  {object}  models.ThermostatSetting
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/settings [put]
// @Security     BearerAuth
func (h *Handler) updateSettings(c *gin.Context) {
	var req SettingsRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	setting, err := h.services.Settings.ApplyWrite(c.Request.Context(), service.WriteParams{
		ThermostatID: thermostatID(c),
		TargetTempC:  req.TargetTempC,
		Mode:         req.Mode,
		Source:       models.SourceApp,
	})
	if err != nil {
		h.respondError(c, "settings_write_failed", err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// @Summary      List recent readings
// @Tags         readings
// @Produce      json
// @Param        limit  query  int  false  "Max rows (default 50)"
// @Success      200  {array}   models.Reading
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/readings [get]
// @Security     BearerAuth
func (h *Handler) listReadings(c *gin.Context) {
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		if v, err := strconv.Atoi(qs); err == nil {
			limit = v
		}
	}

	readings, err := h.services.Telemetry.ListRecent(c.Request.Context(), thermostatID(c), limit)
	if err != nil {
		h.respondError(c, "readings_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, readings)
}
