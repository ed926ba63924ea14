package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"discord_workflow/internal/logger"
	"discord_workflow/internal/model"
	"discord_workflow/internal/signature"
)

// HandleRequest adapts an HTTP request to Handle and writes the Response.
func (h *InteractionHandler) HandleRequest(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, logger.MaxBodyBytes))
	if err != nil {
		logger.GetLogger().Error("failed to read request body", zap.Error(err))
		writeResponse(c, Response{StatusCode: http.StatusInternalServerError, Body: bodyInternalError})
		return
	}

	resp := h.Handle(c.Request.Context(), model.InboundEvent{
		Signature: c.GetHeader(signature.HeaderSignature),
		Timestamp: c.GetHeader(signature.HeaderTimestamp),
		Body:      body,
	})
	writeResponse(c, resp)
}

func writeResponse(c *gin.Context, resp Response) {
	if resp.Body == "" {
		c.Status(resp.StatusCode)
		return
	}
	c.Data(resp.StatusCode, "application/json", []byte(resp.Body))
}

// HandleHealth reports liveness for load balancers and local runs.
func HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
