package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID       = "userId"
	ctxThermostatID = "thermostatId"
)

// userIdMiddleware authenticates app clients via JWT bearer tokens.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing or malformed Authorization header",
		})
		return
	}

	userID, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(ctxUserID, userID)
	c.Next()
}

// thermostatOwnerMiddleware resolves the :id path param and rejects access to
// thermostats the authenticated user does not own. Cross-tenant access reads
// as NotFound.
func (h *Handler) thermostatOwnerMiddleware(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid thermostat id"})
		return
	}

	userID := c.GetInt(ctxUserID)
	if err := h.services.Thermostats.Authorize(c.Request.Context(), userID, id); err != nil {
		h.abortWithError(c, "thermostat_authorize_failed", err)
		return
	}

	c.Set(ctxThermostatID, id)
	c.Next()
}

// deviceTokenMiddleware authenticates devices with the shared static token
// and resolves the :id path param.
func (h *Handler) deviceTokenMiddleware(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok || token != h.deviceToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid device token"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid thermostat id"})
		return
	}

	c.Set(ctxThermostatID, id)
	c.Next()
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func thermostatID(c *gin.Context) int {
	return c.GetInt(ctxThermostatID)
}
