package handlers

import (
	"net/http"
	"strconv"

	"heatbeat/internal/models"
	"heatbeat/internal/service"

	"github.com/gin-gonic/gin"
)

// DeviceTargetRequest is the device-side setpoint write.
type DeviceTargetRequest struct {
	TargetTempC float64 `json:"target_temp_c" binding:"required" example:"19.5"`
	Mode        string  `json:"mode,omitempty" example:"heat"`
}

// @Summary      Submit a device report
// @Description  Accepts both the legacy and the extended report shape. An
// @Description  embedded target_temp_c is fed into arbitration as a device write.
// @Tags         device
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.Reading
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /device/{id}/reading [post]
// @Security     BearerAuth
func (h *Handler) deviceReading(c *gin.Context) {
	var raw map[string]any
	if ok := h.bindJSONOrBadRequest(c, &raw); !ok {
		return
	}

	rep, err := service.DecodeDeviceReport(raw)
	if err != nil {
		h.respondError(c, "device_report_decode_failed", err)
		return
	}

	stored, err := h.services.Telemetry.Record(c.Request.Context(), thermostatID(c), rep)
	if err != nil {
		h.respondError(c, "device_report_record_failed", err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// @Summary      Pull the current setting
// @Description  Devices poll this to converge on the latest accepted write.
// @Tags         device
// @Produce      json
// @Success      200  {object}  models.ThermostatSetting
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /device/{id}/settings [get]
// @Security     BearerAuth
func (h *Handler) devicePullSettings(c *gin.Context) {
	setting, err := h.services.Settings.Get(c.Request.Context(), thermostatID(c))
	if err != nil {
		h.respondError(c, "device_settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// @Summary      Write the setpoint from the device dial
// @Description  Device-originated write: last-writer-wins against app writes,
// @Description  nothing is queued back to the device.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body  DeviceTargetRequest  true  "Setpoint"
// @Success      200  {object}  models.ThermostatSetting
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /device/{id}/target-temp [post]
// @Security     BearerAuth
func (h *Handler) deviceSetTarget(c *gin.Context) {
	var req DeviceTargetRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	setting, err := h.services.Settings.ApplyWrite(c.Request.Context(), service.WriteParams{
		ThermostatID: thermostatID(c),
		TargetTempC:  req.TargetTempC,
		Mode:         req.Mode,
		Source:       models.SourceDevice,
	})
	if err != nil {
		h.respondError(c, "device_set_target_failed", err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

// @Summary      Pull pending commands
// @Description  Returns commands with ordinal > since, ascending. Devices that
// @Description  omit since (or send garbage) get the full retained history.
// @Tags         device
// @Produce      json
// @Param        since  query  int  false  "Highest ordinal already applied"
// @Success      200  {array}   models.Command
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /device/{id}/commands [get]
// @Security     BearerAuth
func (h *Handler) devicePullCommands(c *gin.Context) {
	var since int64
	if qs := c.Query("since"); qs != "" {
		if v, err := strconv.ParseInt(qs, 10, 64); err == nil {
			since = v
		}
	}

	cmds, err := h.services.Commands.Pull(c.Request.Context(), thermostatID(c), since)
	if err != nil {
		h.respondError(c, "device_commands_pull_failed", err)
		return
	}
	c.JSON(http.StatusOK, cmds)
}
