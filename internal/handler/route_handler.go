package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/application"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/response"
)

// RouteHandler handles HTTP requests for route computation and device tracking.
type RouteHandler struct {
	service *application.RouteService
	tracker *application.LocationTracker
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service *application.RouteService, tracker *application.LocationTracker) *RouteHandler {
	return &RouteHandler{service: service, tracker: tracker}
}

// ReportLocationRequest is the body of POST /api/v1/devices/:id/location.
type ReportLocationRequest struct {
	Latitude   *float64   `json:"latitude" binding:"required"`
	Longitude  *float64   `json:"longitude" binding:"required"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// RegisterRoutes registers all route and device routes on the given router group.
func (h *RouteHandler) RegisterRoutes(r *gin.RouterGroup) {
	routes := r.Group("/api/v1/routes")
	{
		routes.GET("/compute", h.ComputeRoute)
		routes.GET("/:id", h.GetRoute)
	}

	devices := r.Group("/api/v1/devices")
	{
		devices.POST("/:id/location", h.ReportLocation)
		devices.GET("/:id/route", h.GetDeviceRoute)
		devices.GET("/:id/routes", h.ListDeviceRoutes)
	}
}

// ComputeRoute handles GET /api/v1/routes/compute?origin=lat,lng&destination=lat,lng&backend=.
func (h *RouteHandler) ComputeRoute(c *gin.Context) {
	// gin drops pairs it cannot parse, which would silently swap in the default destination.
	query, err := url.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	origin, err := parseGeoPoint(query.Get("origin"))
	if err != nil {
		response.BadRequest(c, "invalid origin: "+err.Error())
		return
	}

	req := application.ComputeRouteRequest{
		Origin:  origin,
		Backend: query.Get("backend"),
	}
	if raw := query.Get("destination"); raw != "" {
		destination, err := parseGeoPoint(raw)
		if err != nil {
			response.BadRequest(c, "invalid destination: "+err.Error())
			return
		}
		req.Destination = &destination
	}

	result, err := h.service.ComputeRoute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetRoute handles GET /api/v1/routes/:id.
func (h *RouteHandler) GetRoute(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid route ID")
		return
	}

	result, err := h.service.GetRoute(c.Request.Context(), routeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ReportLocation handles POST /api/v1/devices/:id/location.
func (h *RouteHandler) ReportLocation(c *gin.Context) {
	var req ReportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sample := application.LocationSample{
		DeviceID:   c.Param("id"),
		Point:      route.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude},
		RecordedAt: time.Now().UTC(),
	}
	if req.RecordedAt != nil {
		sample.RecordedAt = *req.RecordedAt
	}

	started, err := h.tracker.Track(sample)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, gin.H{"device_id": sample.DeviceID, "fetch_started": started})
}

// GetDeviceRoute handles GET /api/v1/devices/:id/route.
func (h *RouteHandler) GetDeviceRoute(c *gin.Context) {
	deviceID := c.Param("id")
	latest, ok := h.tracker.Latest(deviceID)
	if !ok {
		response.Error(c, domain.NewNotFoundError("Device route", deviceID))
		return
	}

	response.Success(c, latest)
}

// ListDeviceRoutes handles GET /api/v1/devices/:id/routes.
func (h *RouteHandler) ListDeviceRoutes(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListDeviceRoutes(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// parseGeoPoint parses "lat,lng".
func parseGeoPoint(s string) (route.GeoPoint, error) {
	latRaw, lngRaw, ok := strings.Cut(s, ",")
	if !ok {
		return route.GeoPoint{}, fmt.Errorf("expected \"lat,lng\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return route.GeoPoint{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil {
		return route.GeoPoint{}, fmt.Errorf("longitude: %w", err)
	}
	return route.NewGeoPoint(lat, lng), nil
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
