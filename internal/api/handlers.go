package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ai_site_server/internal/ai"
	"ai_site_server/internal/content"
	"ai_site_server/internal/deploy"
	"ai_site_server/internal/ratelimit"
	"ai_site_server/internal/shortlink"
)

// SiteGenerator produces a validated file set from a user prompt.
// *ai.Generator satisfies this in production.
type SiteGenerator interface {
	GenerateSite(ctx context.Context, prompt string) (content.FileSet, error)
	Ready() bool
}

// SiteDeployer publishes a file set and returns its public URL.
// *deploy.Deployer satisfies this in production.
type SiteDeployer interface {
	Deploy(ctx context.Context, fs content.FileSet) (string, error)
	HasCredential() bool
}

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	generator SiteGenerator
	deployer  SiteDeployer
	links     *shortlink.Store
	limiter   *ratelimit.Limiter
	// publicBaseURL is the externally visible base for short links,
	// e.g. "https://short.example.com".
	publicBaseURL string
}

// NewAPIHandler initializes a new API handler with its dependencies.
func NewAPIHandler(
	generator SiteGenerator,
	deployer SiteDeployer,
	links *shortlink.Store,
	limiter *ratelimit.Limiter,
	publicBaseURL string,
) *APIHandler {
	return &APIHandler{
		generator:     generator,
		deployer:      deployer,
		links:         links,
		limiter:       limiter,
		publicBaseURL: publicBaseURL,
	}
}

// --- Structs for API Requests/Responses ---

type SubmitRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type SubmitResponse struct {
	ShortURL  string `json:"shortUrl"`
	DeployURL string `json:"deployUrl"`
}

// apiError renders the stable machine-readable error payload. Raw provider
// or model error text is never included here, only logged.
func apiError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// --- API Handlers ---

// POST /sites
func (h *APIHandler) SubmitSite(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "MISSING_PROMPT", "Request body must include a non-empty \"prompt\" field.")
		return
	}
	if len(req.Prompt) > ai.MaxPromptChars {
		apiError(c, http.StatusBadRequest, "PROMPT_TOO_LONG",
			fmt.Sprintf("Prompt must be at most %d characters.", ai.MaxPromptChars))
		return
	}

	// Rate limit by client IP before doing any expensive work.
	result := h.limiter.Check(c.ClientIP())
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if !result.Allowed {
		retryAfter := int(result.RetryAfter.Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		apiError(c, http.StatusTooManyRequests, "RATE_LIMITED",
			fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter))
		return
	}

	requestID := uuid.New().String()
	log.Printf("[%s] Generating site for prompt (%d chars)", requestID, len(req.Prompt))

	fileSet, err := h.generator.GenerateSite(c.Request.Context(), req.Prompt)
	if err != nil {
		h.renderGenerationError(c, requestID, err)
		return
	}

	deployURL, err := h.deployer.Deploy(c.Request.Context(), fileSet)
	if err != nil {
		h.renderDeployError(c, requestID, err)
		return
	}

	slug, err := h.links.Create(c.Request.Context(), deployURL)
	if err != nil {
		log.Printf("[%s] Site deployed to %s but short link creation failed: %v", requestID, deployURL, err)
		apiError(c, http.StatusInternalServerError, "SHORTLINK_FAILED",
			"The site was deployed but a short link could not be created. Please try again.")
		return
	}
	shortURL := h.publicBaseURL + "/s/" + slug

	if err := h.links.RecordDeployment(c.Request.Context(), requestID, slug, req.Prompt, deployURL); err != nil {
		// History is best-effort; the deployment itself succeeded.
		log.Printf("[%s] Failed to record deployment history: %v", requestID, err)
	}

	log.Printf("[%s] Deployed %s, short link %s", requestID, deployURL, shortURL)
	c.JSON(http.StatusCreated, SubmitResponse{ShortURL: shortURL, DeployURL: deployURL})
}

func (h *APIHandler) renderGenerationError(c *gin.Context, requestID string, err error) {
	log.Printf("[%s] Generation failed: %v", requestID, err)

	var invalid *ai.InvalidOutputError
	if errors.As(err, &invalid) {
		code := "MODEL_INVALID_OUTPUT"
		var vErr *content.ValidationError
		if errors.As(err, &vErr) {
			code = "INVALID_GENERATED_CONTENT"
		}
		apiError(c, http.StatusUnprocessableEntity, code,
			"The model could not produce a valid site for this prompt. Try a shorter or simpler description.")
		return
	}
	apiError(c, http.StatusBadGateway, "GENERATION_FAILED",
		"Site generation is temporarily unavailable. Please try again shortly.")
}

func (h *APIHandler) renderDeployError(c *gin.Context, requestID string, err error) {
	code := deploy.CodeOf(err)
	log.Printf("[%s] Deployment failed (%s): %v", requestID, code, err)

	status := http.StatusBadGateway
	message := "Publishing the site failed. Please try again."
	switch code {
	case deploy.CodeAuthFailure:
		message = "The hosting service rejected our credentials. This is a server configuration problem."
	case deploy.CodeProviderRateLimit:
		status = http.StatusServiceUnavailable
		message = "The hosting service is throttling requests. Please try again in a minute."
	case deploy.CodeDeployTimeout:
		status = http.StatusGatewayTimeout
		message = "The site deployment did not finish in time. Please try again."
	case deploy.CodeDeployError:
		status = http.StatusInternalServerError
	}
	apiError(c, status, string(code), message)
}

// GET /s/:slug
func (h *APIHandler) RedirectShortLink(c *gin.Context) {
	slug := c.Param("slug")
	destination, err := h.links.Resolve(c.Request.Context(), slug)
	if errors.Is(err, shortlink.ErrNotFound) {
		apiError(c, http.StatusNotFound, "LINK_NOT_FOUND", "This short link does not exist.")
		return
	}
	if err != nil {
		log.Printf("Error resolving slug %q: %v", slug, err)
		apiError(c, http.StatusInternalServerError, "RESOLVE_FAILED", "Could not resolve this short link. Please try again.")
		return
	}
	c.Redirect(http.StatusFound, destination)
}

// GET /health
func (h *APIHandler) Health(c *gin.Context) {
	status := func(ok bool) string {
		if ok {
			return "ok"
		}
		return "unavailable"
	}

	generatorOK := h.generator.Ready()
	credentialOK := h.deployer.HasCredential()
	storeOK := h.links.Ping(c.Request.Context()) == nil

	httpStatus := http.StatusOK
	if !generatorOK || !credentialOK || !storeOK {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, gin.H{
		"generator":         status(generatorOK),
		"hostingCredential": status(credentialOK),
		"store":             status(storeOK),
	})
}
