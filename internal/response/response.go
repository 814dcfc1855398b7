package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain"
)

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// Success writes a 200 envelope carrying data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// Created writes a 201 envelope carrying data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// Accepted writes a 202 envelope for work that continues in the background.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, gin.H{"success": true, "data": data})
}

// Paginated writes a 200 envelope with pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"pagination": Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: pages,
		},
	})
}

// BadRequest writes a 400 error envelope.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, message)
}

// Error maps err to a status code. Domain errors keep their message;
// anything else is reported as an internal error.
func Error(c *gin.Context, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindValidation:
			abort(c, http.StatusBadRequest, de.Message)
			return
		case domain.KindNotFound:
			abort(c, http.StatusNotFound, de.Message)
			return
		}
	}
	_ = c.Error(err)
	abort(c, http.StatusInternalServerError, "internal server error")
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}
