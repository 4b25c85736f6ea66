package deploy

import (
	"context"
	"log"

	"ai_site_server/internal/content"
)

// Deployer publishes a validated file set to the hosting provider and
// returns the public URL of the deployed site. Each Deploy call owns its
// deployment handle end-to-end; handles are never shared or reused across
// requests.
type Deployer struct {
	client *Client
	poll   PollConfig
}

// NewDeployer wraps a provider client with a polling schedule.
func NewDeployer(client *Client, poll PollConfig) *Deployer {
	return &Deployer{client: client, poll: poll}
}

// HasCredential reports whether the underlying provider client holds a
// bearer credential. Used by the health endpoint.
func (d *Deployer) HasCredential() bool { return d.client.HasCredential() }

// Deploy runs the full pipeline for one file set, strictly in sequence:
// build the digest manifest, open a deployment, upload whatever the provider
// reports missing, wait for readiness, and extract the public URL. Every
// taxonomy error propagates unchanged; anything unrecognized is wrapped into
// the DEPLOY_ERROR catch-all. Nothing is retried in here - a caller that
// wants a retry restarts the whole call, which is safe because digesting and
// uploading are idempotent.
func (d *Deployer) Deploy(ctx context.Context, fs content.FileSet) (string, error) {
	manifest := BuildManifest(fs)

	deployID, required, err := d.client.CreateDeploy(ctx, manifest)
	if err != nil {
		return "", wrapUnknown(err)
	}
	log.Printf("Opened deployment %s (%d files, %d required)", deployID, len(manifest), len(required))

	if err := d.client.uploadRequired(ctx, deployID, required, fs); err != nil {
		return "", wrapUnknown(err)
	}

	status, err := d.client.awaitReady(ctx, deployID, d.poll)
	if err != nil {
		return "", wrapUnknown(err)
	}

	publicURL, err := extractPublicURL(status)
	if err != nil {
		return "", err
	}
	log.Printf("Deployment %s is live at %s", deployID, publicURL)
	return publicURL, nil
}

// extractPublicURL picks the externally reachable address of a ready
// deployment, preferring the secure URL, then the plain site URL, then the
// deploy-scoped URL. A ready deployment with none of the three is an error.
func extractPublicURL(status *DeployStatus) (string, error) {
	switch {
	case status.SSLURL != "":
		return status.SSLURL, nil
	case status.URL != "":
		return status.URL, nil
	case status.DeployURL != "":
		return status.DeployURL, nil
	default:
		return "", newError(CodeNoPublicURL, "deployment %s is ready but the provider returned no public URL", status.ID)
	}
}
