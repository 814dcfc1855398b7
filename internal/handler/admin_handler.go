package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/application"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/response"
)

// AdminRouteHandler handles admin HTTP requests for route history.
type AdminRouteHandler struct {
	service *application.RouteService
}

// NewAdminRouteHandler creates a new AdminRouteHandler.
func NewAdminRouteHandler(service *application.RouteService) *AdminRouteHandler {
	return &AdminRouteHandler{service: service}
}

// RegisterRoutes registers admin route history routes.
// These routes carry no authentication and expose every device's location
// history; serve them only on an internal network or behind a gateway that
// authenticates operators.
func (h *AdminRouteHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	{
		admin.GET("/routes", h.ListRoutes)
		admin.GET("/stats/routes", h.RouteStats)
	}
}

// ListRoutes handles GET /api/v1/admin/routes.
func (h *AdminRouteHandler) ListRoutes(c *gin.Context) {
	page, limit := parsePagination(c)

	routes, total, err := h.service.ListRoutes(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, routes, total, page, limit)
}

// RouteStats handles GET /api/v1/admin/stats/routes.
func (h *AdminRouteHandler) RouteStats(c *gin.Context) {
	stats, err := h.service.GetRouteStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
