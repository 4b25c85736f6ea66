package deploy

import (
	"context"
	"log"
	"time"
)

// PollConfig tunes the status-polling loop. Zero values fall back to the
// defaults below.
type PollConfig struct {
	// InitialDelay is the sleep before the second status query.
	InitialDelay time.Duration
	// Factor multiplies the delay after every query. Must be > 1.
	Factor float64
	// MaxDelay caps the per-query sleep.
	MaxDelay time.Duration
	// Budget is the overall wall-clock limit for reaching a terminal state.
	Budget time.Duration
}

// Default polling schedule: 1s, 1.5s, 2.25s, ... capped at 8s, within a 90s
// overall budget.
const (
	defaultInitialDelay  = 1 * time.Second
	defaultBackoffFactor = 1.5
	defaultMaxDelay      = 8 * time.Second
	defaultPollBudget    = 90 * time.Second
)

func (cfg PollConfig) withDefaults() PollConfig {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultInitialDelay
	}
	if cfg.Factor <= 1 {
		cfg.Factor = defaultBackoffFactor
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.Budget <= 0 {
		cfg.Budget = defaultPollBudget
	}
	return cfg
}

// awaitReady polls the deployment status until it reaches a terminal state
// or the wall-clock budget runs out. Only "still building" responses are
// retried; a transport-level failure on any single query propagates
// immediately without backoff.
func (c *Client) awaitReady(ctx context.Context, deployID string, cfg PollConfig) (*DeployStatus, error) {
	cfg = cfg.withDefaults()
	deadline := time.Now().Add(cfg.Budget)
	delay := cfg.InitialDelay

	for {
		status, err := c.GetDeploy(ctx, deployID)
		if err != nil {
			return nil, err
		}
		if status.IsTerminal() {
			if status.Failed() {
				return nil, newError(CodeDeployFailed, "deployment %s ended in state %q", deployID, status.State)
			}
			return status, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, newError(CodeDeployTimeout, "deployment %s still %q after %s", deployID, status.State, cfg.Budget)
		}

		sleep := delay
		if sleep > cfg.MaxDelay {
			sleep = cfg.MaxDelay
		}
		if sleep > remaining {
			sleep = remaining
		}
		log.Printf("Deployment %s is %q, polling again in %s", deployID, status.State, sleep)

		select {
		case <-ctx.Done():
			return nil, wrapUnknown(ctx.Err())
		case <-time.After(sleep):
		}

		delay = time.Duration(float64(delay) * cfg.Factor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
