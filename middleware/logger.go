package middleware

import (
	"time"

	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request once it has been handled
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		utils.LogRequest(GetRequestID(c), c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	}
}
