package api

import (
	"github.com/gin-gonic/gin"

	internalapi "ai_site_server/internal/api"
)

// RegisterRoutes sets up the API endpoints and groups them logically.
func RegisterRoutes(router *gin.Engine, h *internalapi.APIHandler) {

	// --- Site Lifecycle ---
	// Submitting a prompt generates, deploys, and shortens in one call.
	router.POST("/sites", h.SubmitSite)

	// --- Short Link Redirects ---
	router.GET("/s/:slug", h.RedirectShortLink)

	// --- Health Check ---
	// Reports readiness of the generator, the hosting credential, and the
	// short-link store.
	router.GET("/health", h.Health)
}
