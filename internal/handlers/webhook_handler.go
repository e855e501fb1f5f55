package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remotehunt/remotehunt/internal/dtos"
	"github.com/remotehunt/remotehunt/internal/services"
)

// WebhookHandler receives post payloads from upstream automations.
type WebhookHandler struct {
	Ingest *services.IngestService
	Secret string
}

func NewWebhookHandler(ingest *services.IngestService, secret string) *WebhookHandler {
	return &WebhookHandler{Ingest: ingest, Secret: secret}
}

// Receive is POST /webhooks/:source?secret=... . Empty or malformed payloads
// answer 200 with a skip result: a 4xx would make the upstream automation
// treat the delivery as a permanent failure and retry-storm us.
func (h *WebhookHandler) Receive(c *gin.Context) {
	secret := c.Query("secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.Secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		return
	}

	var payload dtos.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusOK, services.Result{
			Status: services.StatusSkipped,
			Reason: services.SkipEmptyData,
			State:  services.StateReceived,
		})
		return
	}

	post := payload.Normalize(c.Param("source"))
	result := h.Ingest.ProcessPost(c.Request.Context(), post)
	c.JSON(http.StatusOK, result)
}
