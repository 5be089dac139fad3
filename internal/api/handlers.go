package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"retracker/server/internal/service"
	"retracker/server/internal/store"
)

// Pinger reports storage connectivity for the health endpoint.
type Pinger interface {
	Ping() error
}

type Handler struct {
	service *service.PropertyService
	pinger  Pinger
	logger  *logrus.Logger
	timeout time.Duration
}

func NewHandler(svc *service.PropertyService, pinger Pinger, logger *logrus.Logger, timeout time.Duration) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{
		service: svc,
		pinger:  pinger,
		logger:  logger,
		timeout: timeout,
	}
}

// PropertyFilters binds the optional list query parameters.
type PropertyFilters struct {
	City        string   `form:"city"`
	State       string   `form:"state"`
	MinCashFlow *float64 `form:"minCashFlow"`
	MaxPrice    *float64 `form:"maxPrice"`
}

// requestContext bounds every storage round-trip; expiry is handled
// downstream as a storage outage.
func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *Handler) ListProperties(c *gin.Context) {
	var filters PropertyFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.logger.WithError(err).Error("Failed to parse property filters")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid filter parameters"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	views, degraded, err := h.service.List(ctx, store.ListFilters{
		City:        filters.City,
		State:       filters.State,
		MinCashFlow: filters.MinCashFlow,
		MaxPrice:    filters.MaxPrice,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to list properties")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch properties"})
		return
	}

	resp := gin.H{"success": true, "data": views}
	if degraded {
		resp["warning"] = "Database unavailable, showing no saved properties"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid property id"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	view, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Property not found"})
			return
		}
		h.logger.WithError(err).WithField("id", id).Error("Failed to fetch property")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch property"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

// SearchProperty backs the pre-create existence check in the UI. It finds
// soft-deleted rows too, so the client can offer reactivation.
func (h *Handler) SearchProperty(c *gin.Context) {
	address := c.Query("address")
	city := c.Query("city")
	state := c.Query("state")
	zip := c.Query("zip")
	if address == "" || city == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "address, city and state are required"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	view, err := h.service.Search(ctx, address, city, state, zip)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": "Property not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to search property")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to search property"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.WithError(err).Error("Failed to parse property payload")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.service.Create(ctx, payload)
	if err != nil {
		var dup *store.DuplicateError
		var invalid *store.ValidationError
		switch {
		case errors.As(err, &dup):
			c.JSON(http.StatusConflict, gin.H{
				"success":          false,
				"error":            "Property already exists at this address",
				"existingProperty": true,
				"propertyId":       dup.PropertyID,
			})
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": invalid.Error()})
		default:
			h.logger.WithError(err).Error("Failed to create property")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create property"})
		}
		return
	}

	switch {
	case result.Reactivated:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    result.Property,
			"message": "Property reactivated",
		})
	case result.Degraded:
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data":    result.Property,
			"warning": "Database unavailable, property not saved permanently",
		})
	default:
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": result.Property})
	}
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid property id"})
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.WithError(err).Error("Failed to parse property payload")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	view, err := h.service.Update(ctx, id, payload)
	if err != nil {
		var invalid *store.ValidationError
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Property not found"})
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": invalid.Error()})
		default:
			h.logger.WithError(err).WithField("id", id).Error("Failed to update property")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to update property"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid property id"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	view, err := h.service.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Property not found"})
			return
		}
		h.logger.WithError(err).WithField("id", id).Error("Failed to delete property")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete property"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.pinger.Ping(); err != nil {
		h.logger.WithError(err).Error("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"status": "ok"}})
}
