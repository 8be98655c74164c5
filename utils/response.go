package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes {"success": true, "data": data}
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// SuccessWithPagination writes a data page together with its pagination block
func SuccessWithPagination(c *gin.Context, data interface{}, p *Pagination) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":        p.Page,
			"limit":       p.Limit,
			"total":       p.Total,
			"total_pages": p.LastPage,
		},
	})
}

// Error writes {"success": false, "error": {"code", "message"}}
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// ErrorWithDetails is Error plus a free-form details field
func ErrorWithDetails(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// AbortWithError writes the envelope and stops the handler chain
func AbortWithError(c *gin.Context, status int, code, message string) {
	Error(c, status, code, message)
	c.Abort()
}

// RespondAppError writes an AppError, logging the wrapped cause for 5xx responses
func RespondAppError(c *gin.Context, err *AppError) {
	if err.Status >= http.StatusInternalServerError {
		LogError("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	Error(c, err.Status, err.Code, err.Message)
}
