package handlers

import (
	"net/http"
	"strconv"

	"heatbeat/internal/service"

	"github.com/gin-gonic/gin"
)

// ScheduleEntryRequest is the payload for creating or updating one entry.
type ScheduleEntryRequest struct {
	Weekday     int     `json:"weekday"`
	Start       string  `json:"start" binding:"required" example:"06:30"`
	End         string  `json:"end" binding:"required" example:"08:00"`
	TargetTempC float64 `json:"target_temp_c" binding:"required" example:"22.0"`
	TemplateID  *int    `json:"template_id,omitempty"`
}

// ScheduleBulkRequest creates one entry per distinct weekday at once.
type ScheduleBulkRequest struct {
	Weekdays    []int   `json:"weekdays" binding:"required"`
	Start       string  `json:"start" binding:"required" example:"06:30"`
	End         string  `json:"end" binding:"required" example:"08:00"`
	TargetTempC float64 `json:"target_temp_c" binding:"required" example:"22.0"`
	TemplateID  *int    `json:"template_id,omitempty"`
}

// TemplateRequest is the payload for creating or updating a template.
type TemplateRequest struct {
	Name        string `json:"name" binding:"required" example:"Workweek"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

func (r ScheduleEntryRequest) params() service.ScheduleEntryParams {
	return service.ScheduleEntryParams{
		Weekday:     r.Weekday,
		Start:       r.Start,
		End:         r.End,
		TargetTempC: r.TargetTempC,
		TemplateID:  r.TemplateID,
	}
}

// pathID parses an integer path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// @Summary      List schedule entries
// @Tags         schedule
// @Produce      json
// @Param        template_id  query  int  false  "Filter to one template"
// @Success      200  {array}   models.ScheduleEntry
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/schedule [get]
// @Security     BearerAuth
func (h *Handler) listSchedule(c *gin.Context) {
	var templateID *int
	if qs := c.Query("template_id"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template_id"})
			return
		}
		templateID = &v
	}

	entries, err := h.services.Schedule.ListEntries(c.Request.Context(), thermostatID(c), templateID)
	if err != nil {
		h.respondError(c, "schedule_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary      Add a schedule entry
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body  ScheduleEntryRequest  true  "Entry"
// @Success      200  {object}  models.ScheduleEntry
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/schedule [post]
// @Security     BearerAuth
func (h *Handler) createScheduleEntry(c *gin.Context) {
	var req ScheduleEntryRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	entry, err := h.services.Schedule.CreateEntry(c.Request.Context(), thermostatID(c), req.params())
	if err != nil {
		h.respondError(c, "schedule_entry_create_failed", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// @Summary      Add entries for several weekdays at once
// @Description  All-or-nothing: a failure creates no entries at all
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body  ScheduleBulkRequest  true  "Bulk request"
// @Success      200  {object}  map[string]interface{}  "created_count, created_entries"
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/schedule/bulk [post]
// @Security     BearerAuth
func (h *Handler) bulkCreateSchedule(c *gin.Context) {
	var req ScheduleBulkRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	entries, err := h.services.Schedule.BulkCreate(c.Request.Context(), thermostatID(c), service.BulkScheduleParams{
		Weekdays:    req.Weekdays,
		Start:       req.Start,
		End:         req.End,
		TargetTempC: req.TargetTempC,
		TemplateID:  req.TemplateID,
	})
	if err != nil {
		h.respondError(c, "schedule_bulk_create_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"created_count":   len(entries),
		"created_entries": entries,
	})
}

// @Summary      Update a schedule entry
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body  ScheduleEntryRequest  true  "Entry"
// @Success      200  {object}  models.ScheduleEntry
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/schedule/entries/{entryId} [put]
// @Security     BearerAuth
func (h *Handler) updateScheduleEntry(c *gin.Context) {
	entryID, ok := pathID(c, "entryId")
	if !ok {
		return
	}
	var req ScheduleEntryRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	entry, err := h.services.Schedule.UpdateEntry(c.Request.Context(), thermostatID(c), entryID, req.params())
	if err != nil {
		h.respondError(c, "schedule_entry_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// @Summary      Delete a schedule entry
// @Tags         schedule
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/schedule/entries/{entryId} [delete]
// @Security     BearerAuth
func (h *Handler) deleteScheduleEntry(c *gin.Context) {
	entryID, ok := pathID(c, "entryId")
	if !ok {
		return
	}

	if err := h.services.Schedule.DeleteEntry(c.Request.Context(), thermostatID(c), entryID); err != nil {
		h.respondError(c, "schedule_entry_delete_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary      List schedule templates
// @Tags         schedule
// @Produce      json
// @Success      200  {array}  models.ScheduleTemplate
// @Router       /api/v1/thermostats/{id}/schedule/templates [get]
// @Security     BearerAuth
func (h *Handler) listTemplates(c *gin.Context) {
	templates, err := h.services.Schedule.ListTemplates(c.Request.Context(), thermostatID(c))
	if err != nil {
		h.respondError(c, "templates_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// @Summary      Create a schedule template
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body  TemplateRequest  true  "Template"
// @Success      200  {object}  models.ScheduleTemplate
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/schedule/templates [post]
// @Security     BearerAuth
func (h *Handler) createTemplate(c *gin.Context) {
	var req TemplateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	tpl, err := h.services.Schedule.CreateTemplate(c.Request.Context(), thermostatID(c), service.TemplateParams{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.respondError(c, "template_create_failed", err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// @Summary      Update a schedule template
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        body  body  TemplateRequest  true  "Template"
// @Success      200  {object}  models.ScheduleTemplate
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/schedule/templates/{templateId} [put]
// @Security     BearerAuth
func (h *Handler) updateTemplate(c *gin.Context) {
	tplID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	var req TemplateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	tpl, err := h.services.Schedule.UpdateTemplate(c.Request.Context(), thermostatID(c), tplID, service.TemplateParams{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.respondError(c, "template_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// @Summary      Delete a schedule template
// @Description  Rejected with 409 and the blocking entry count while entries are attached, unless delete_entries=true
// @Tags         schedule
// @Produce      json
// @Param        delete_entries  query  bool  false  "Cascade to attached entries"
// @Success      200  {object}  map[string]interface{}  "ok, deleted_entries"
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]interface{}
// @Router       /api/v1/thermostats/{id}/schedule/templates/{templateId} [delete]
// @Security     BearerAuth
func (h *Handler) deleteTemplate(c *gin.Context) {
	tplID, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	cascade := c.Query("delete_entries") == "true"

	removed, err := h.services.Schedule.DeleteTemplate(c.Request.Context(), thermostatID(c), tplID, cascade)
	if err != nil {
		h.respondError(c, "template_delete_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted_entries": removed})
}
