package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_site_server/internal/ai"
	"ai_site_server/internal/content"
	"ai_site_server/internal/deploy"
	"ai_site_server/internal/ratelimit"
	"ai_site_server/internal/shortlink"
)

type stubGenerator struct {
	fs    content.FileSet
	err   error
	ready bool
}

func (s *stubGenerator) GenerateSite(ctx context.Context, prompt string) (content.FileSet, error) {
	return s.fs, s.err
}

func (s *stubGenerator) Ready() bool { return s.ready }

type stubDeployer struct {
	url   string
	err   error
	cred  bool
	calls int
}

func (s *stubDeployer) Deploy(ctx context.Context, fs content.FileSet) (string, error) {
	s.calls++
	return s.url, s.err
}

func (s *stubDeployer) HasCredential() bool { return s.cred }

type fixture struct {
	router    *gin.Engine
	generator *stubGenerator
	deployer  *stubDeployer
	links     *shortlink.Store
}

func newFixture(t *testing.T, rateMax int) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	links, err := shortlink.NewStore(filepath.Join(t.TempDir(), "links.db"))
	require.NoError(t, err)
	t.Cleanup(func() { links.Close() })

	generator := &stubGenerator{
		fs:    content.FileSet{"/index.html": "<!doctype html><title>T</title>"},
		ready: true,
	}
	deployer := &stubDeployer{url: "https://deployed.example.app", cred: true}
	limiter := ratelimit.NewLimiter(rateMax, time.Minute)

	h := NewAPIHandler(generator, deployer, links, limiter, "http://short.test")

	router := gin.New()
	router.POST("/sites", h.SubmitSite)
	router.GET("/s/:slug", h.RedirectShortLink)
	router.GET("/health", h.Health)

	return &fixture{router: router, generator: generator, deployer: deployer, links: links}
}

func (f *fixture) submit(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sites", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Error.Message, "every error carries a remediation hint")
	return payload.Error.Code
}

func TestSubmitSiteHappyPath(t *testing.T) {
	f := newFixture(t, 10)

	w := f.submit(`{"prompt": "a site about tea"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://deployed.example.app", resp.DeployURL)
	assert.True(t, strings.HasPrefix(resp.ShortURL, "http://short.test/s/"), resp.ShortURL)

	// The short link must resolve to the deploy URL.
	slug := strings.TrimPrefix(resp.ShortURL, "http://short.test/s/")
	destination, err := f.links.Resolve(context.Background(), slug)
	require.NoError(t, err)
	assert.Equal(t, resp.DeployURL, destination)
}

func TestSubmitSiteMissingPrompt(t *testing.T) {
	f := newFixture(t, 10)

	w := f.submit(`{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_PROMPT", errorCode(t, w))
	assert.Equal(t, 0, f.deployer.calls)
}

func TestSubmitSitePromptTooLong(t *testing.T) {
	f := newFixture(t, 10)

	long := strings.Repeat("x", ai.MaxPromptChars+1)
	w := f.submit(`{"prompt": "` + long + `"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PROMPT_TOO_LONG", errorCode(t, w))
}

func TestSubmitSiteRateLimited(t *testing.T) {
	f := newFixture(t, 1)

	first := f.submit(`{"prompt": "ok"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := f.submit(`{"prompt": "ok"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, second))
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 1, f.deployer.calls, "denied requests never reach the deployer")
}

func TestSubmitSiteModelInvalidOutput(t *testing.T) {
	f := newFixture(t, 10)
	f.generator.err = &ai.InvalidOutputError{Reason: "output did not parse as a file array"}

	w := f.submit(`{"prompt": "ok"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "MODEL_INVALID_OUTPUT", errorCode(t, w))
}

func TestSubmitSiteInvalidGeneratedContent(t *testing.T) {
	f := newFixture(t, 10)
	f.generator.err = &ai.InvalidOutputError{
		Reason: "generated site failed content validation",
		Err:    &content.ValidationError{Reason: "missing entry document /index.html"},
	}

	w := f.submit(`{"prompt": "ok"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_GENERATED_CONTENT", errorCode(t, w))
}

func TestSubmitSiteDeployErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "timeout",
			err:        &deploy.Error{Code: deploy.CodeDeployTimeout, Message: "too slow"},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "DEPLOY_TIMEOUT",
		},
		{
			name:       "provider rate limit",
			err:        &deploy.Error{Code: deploy.CodeProviderRateLimit, Message: "throttled"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "PROVIDER_RATE_LIMIT",
		},
		{
			name:       "auth failure",
			err:        &deploy.Error{Code: deploy.CodeAuthFailure, Message: "bad token"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "AUTH_FAILURE",
		},
		{
			name:       "upload failure",
			err:        &deploy.Error{Code: deploy.CodeUploadFailed, Message: "mismatch"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPLOAD_FAILED",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 10)
			f.deployer.err = tc.err

			w := f.submit(`{"prompt": "ok"}`)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantCode, errorCode(t, w))
			// The raw provider message must never leak to the caller.
			assert.NotContains(t, w.Body.String(), tc.err.(*deploy.Error).Message)
		})
	}
}

func TestRedirectShortLink(t *testing.T) {
	f := newFixture(t, 10)
	slug, err := f.links.Create(context.Background(), "https://deployed.example.app")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/s/"+slug, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://deployed.example.app", w.Header().Get("Location"))
}

func TestRedirectUnknownSlug(t *testing.T) {
	f := newFixture(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/s/missing", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "LINK_NOT_FOUND", errorCode(t, w))
}

func TestHealthOK(t *testing.T) {
	f := newFixture(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["generator"])
	assert.Equal(t, "ok", body["hostingCredential"])
	assert.Equal(t, "ok", body["store"])
}

func TestHealthDegraded(t *testing.T) {
	f := newFixture(t, 10)
	f.deployer.cred = false

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body["hostingCredential"])
}
