package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the hosting provider's deployment API. All endpoints are
// scoped under a single site and authenticated with a bearer token.
type Client struct {
	baseURL    string
	siteID     string
	token      string
	httpClient *http.Client
}

// NewClient creates a provider client. baseURL is the API root (no trailing
// slash required), siteID scopes every deployment, token is the bearer
// credential.
func NewClient(baseURL, siteID, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		siteID:  siteID,
		token:   token,
		// Per-call timeout guards a single round-trip; the poller owns the
		// overall deployment budget.
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// HasCredential reports whether the client was configured with a bearer
// token. Used by the health endpoint.
func (c *Client) HasCredential() bool { return c.token != "" }

// createDeployResponse is the provider's answer to a manifest submission.
type createDeployResponse struct {
	ID string `json:"id"`
	// Required lists the fingerprints the provider does not already have,
	// in the order it wants them handled.
	Required []string `json:"required"`
}

// DeployStatus is the provider's view of a single deployment.
type DeployStatus struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	SSLURL string `json:"ssl_url"`
	URL    string `json:"url"`
	// DeployURL addresses this specific deploy rather than the site.
	DeployURL string `json:"deploy_url"`
}

// Provider deployment states. "ready" and "error" are terminal.
const (
	StateReady = "ready"
	StateError = "error"
)

// IsTerminal reports whether the status has reached a final state.
func (s *DeployStatus) IsTerminal() bool {
	return s.State == StateReady || s.State == StateError || s.State == "failed"
}

// Failed reports whether the deployment ended in the provider's error state.
func (s *DeployStatus) Failed() bool {
	return s.State == StateError || s.State == "failed"
}

// CreateDeploy submits a manifest and opens a new deployment. The provider
// allocates server-side state and answers with the deployment id plus the
// fingerprints it still needs uploaded.
func (c *Client) CreateDeploy(ctx context.Context, manifest Manifest) (string, []string, error) {
	body, err := json.Marshal(map[string]any{"files": manifest})
	if err != nil {
		return "", nil, wrapUnknown(err)
	}

	endpoint := fmt.Sprintf("%s/sites/%s/deploys", c.baseURL, url.PathEscape(c.siteID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", nil, wrapUnknown(err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp createDeployResponse
	if err := c.do(req, &resp); err != nil {
		return "", nil, err
	}
	if resp.ID == "" {
		return "", nil, newError(CodeProviderRequestFailed, "provider did not return a deployment id")
	}
	return resp.ID, resp.Required, nil
}

// UploadFile transmits the raw bytes of one file to the per-path upload
// endpoint of a deployment. Re-uploading identical content to the same path
// is safe.
func (c *Client) UploadFile(ctx context.Context, deployID, path, body string) error {
	endpoint := fmt.Sprintf("%s/deploys/%s/files/%s",
		c.baseURL, url.PathEscape(deployID), escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, strings.NewReader(body))
	if err != nil {
		return wrapUnknown(err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	if err := c.do(req, nil); err != nil {
		// Transmission failures are upload failures regardless of the
		// underlying provider status; the original error stays attached as
		// the cause.
		status := 0
		var de *Error
		if errors.As(err, &de) {
			status = de.Status
		}
		return &Error{
			Code:    CodeUploadFailed,
			Message: fmt.Sprintf("upload of %s rejected by provider", path),
			Status:  status,
			Err:     err,
		}
	}
	return nil
}

// GetDeploy fetches the current status of a deployment.
func (c *Client) GetDeploy(ctx context.Context, deployID string) (*DeployStatus, error) {
	endpoint := fmt.Sprintf("%s/deploys/%s", c.baseURL, url.PathEscape(deployID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, wrapUnknown(err)
	}

	var status DeployStatus
	if err := c.do(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// do executes a provider request, maps non-success statuses onto the error
// taxonomy, and decodes the JSON response into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Code: CodeProviderRequestFailed, Message: "provider request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := readSnippet(resp.Body)
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return &Error{Code: CodeAuthFailure, Message: "provider rejected credentials", Status: resp.StatusCode}
		case resp.StatusCode == http.StatusTooManyRequests:
			return &Error{Code: CodeProviderRateLimit, Message: "provider rate limit exceeded", Status: resp.StatusCode}
		default:
			return &Error{
				Code:    CodeProviderRequestFailed,
				Message: fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, snippet),
				Status:  resp.StatusCode,
			}
		}
	}

	if out == nil {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Code: CodeProviderRequestFailed, Message: "failed to decode provider response", Err: err}
	}
	return nil
}

// readSnippet reads at most 512 bytes of a response body for diagnostics.
// The raw text is logged internally, never shown to end users.
func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

// escapePath escapes each segment of a normalized logical path for use in a
// URL, preserving the "/" separators.
func escapePath(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
