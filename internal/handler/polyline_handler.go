package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/polyline"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/response"
)

// PolylineHandler exposes the polyline codec over HTTP.
type PolylineHandler struct{}

// NewPolylineHandler creates a new PolylineHandler.
func NewPolylineHandler() *PolylineHandler {
	return &PolylineHandler{}
}

// EncodeRequest is the body of POST /api/v1/polyline/encode.
type EncodeRequest struct {
	Points []route.GeoPoint `json:"points" binding:"required"`
}

// RegisterRoutes registers the codec routes.
func (h *PolylineHandler) RegisterRoutes(r *gin.RouterGroup) {
	codec := r.Group("/api/v1/polyline")
	{
		codec.GET("/decode", h.Decode)
		codec.POST("/encode", h.Encode)
	}
}

// Decode handles GET /api/v1/polyline/decode?encoded=.
func (h *PolylineHandler) Decode(c *gin.Context) {
	encoded := c.Query("encoded")
	points, err := polyline.Decode(encoded)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, gin.H{"points": points, "point_count": len(points)})
}

// Encode handles POST /api/v1/polyline/encode.
func (h *PolylineHandler) Encode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	for i, p := range req.Points {
		if err := p.Validate(); err != nil {
			response.BadRequest(c, fmt.Sprintf("points[%d]: %v", i, err))
			return
		}
	}

	response.Success(c, gin.H{"encoded": polyline.Encode(req.Points), "point_count": len(req.Points)})
}
