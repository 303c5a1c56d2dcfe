package handlers

import (
	"errors"
	"net/http"

	"heatbeat/internal/apperrors"
	"heatbeat/internal/hub"
	"heatbeat/internal/logger"
	"heatbeat/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services, the live hub, and logging.
type Handler struct {
	services    *service.Service
	hub         *hub.Hub
	log         *logger.Logger
	deviceToken string
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, liveHub *hub.Hub, log *logger.Logger, deviceToken string) *Handler {
	return &Handler{services: services, hub: liveHub, log: log, deviceToken: deviceToken}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)
	h.registerDeviceRoutes(router)

	// Push channel for app clients; token auth happens before the upgrade.
	router.GET("/ws/thermostats/:id", h.wsSubscribe)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/thermostats", h.listThermostats)
		api.POST("/thermostats", h.createThermostat)

		t := api.Group("/thermostats/:id", h.thermostatOwnerMiddleware)
		{
			t.GET("/settings", h.getSettings)
			t.PUT("/settings", h.updateSettings)

			t.GET("/readings", h.listReadings)

			t.GET("/schedule", h.listSchedule)
			t.POST("/schedule", h.createScheduleEntry)
			t.POST("/schedule/bulk", h.bulkCreateSchedule)
			t.PUT("/schedule/entries/:entryId", h.updateScheduleEntry)
			t.DELETE("/schedule/entries/:entryId", h.deleteScheduleEntry)

			t.GET("/schedule/templates", h.listTemplates)
			t.POST("/schedule/templates", h.createTemplate)
			t.PUT("/schedule/templates/:templateId", h.updateTemplate)
			t.DELETE("/schedule/templates/:templateId", h.deleteTemplate)
		}
	}
}

func (h *Handler) registerDeviceRoutes(r *gin.Engine) {
	device := r.Group("/device/:id", h.deviceTokenMiddleware)
	{
		device.POST("/reading", h.deviceReading)
		device.GET("/settings", h.devicePullSettings)
		device.POST("/target-temp", h.deviceSetTarget)
		device.GET("/commands", h.devicePullCommands)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps the typed error taxonomy onto HTTP status codes in one
// place: Validation → 400, NotFound → 404, ReferentialConflict → 409,
// everything else → 500 (logged, body kept generic).
func (h *Handler) respondError(c *gin.Context, logKey string, err error) {
	var vErr *apperrors.ValidationError
	var nfErr *apperrors.NotFoundError
	var rcErr *apperrors.ReferentialConflict

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, gin.H{"error": nfErr.Error()})
	case errors.As(err, &rcErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":            rcErr.Error(),
			"blocking_entries": rcErr.Blocking,
		})
	default:
		if h.log != nil {
			h.log.Errorw(logKey, "err", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// abortWithError is respondError for middleware.
func (h *Handler) abortWithError(c *gin.Context, logKey string, err error) {
	h.respondError(c, logKey, err)
	c.Abort()
}

// bindJSONOrBadRequest binds the request body into dst, writing a 400 JSON on
// failure. Returns false if the request was already handled.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return false
	}
	return true
}
