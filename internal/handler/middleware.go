package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"discord_workflow/internal/logger"
)

// RecoverInternalError turns a panic in a later handler into the generic 500 response,
// so no cause reaches the caller.
func RecoverInternalError() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.GetLogger().Error("Unexpected error", zap.String("panic", fmt.Sprint(r)))
				c.Data(http.StatusInternalServerError, "application/json", []byte(bodyInternalError))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NewRouter builds the gin engine serving interactions. Any POST path reaches the
// interaction handler so API Gateway stage and resource prefixes need no configuration.
func NewRouter(h *InteractionHandler) *gin.Engine {
	r := gin.New()
	r.Use(RecoverInternalError())
	r.Use(logger.GinLogMiddleware())

	r.GET("/health", HandleHealth)
	r.POST("/interactions", h.HandleRequest)
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodPost {
			h.HandleRequest(c)
			return
		}
		c.Status(http.StatusNotFound)
	})
	return r
}
