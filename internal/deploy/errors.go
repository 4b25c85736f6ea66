package deploy

import (
	"errors"
	"fmt"
)

// Code identifies one entry of the closed deployment error taxonomy. Callers
// switch on codes, never on error message text.
type Code string

const (
	// CodeAuthFailure - the provider rejected our credential (401/403).
	CodeAuthFailure Code = "AUTH_FAILURE"
	// CodeProviderRateLimit - the provider throttled us (429).
	CodeProviderRateLimit Code = "PROVIDER_RATE_LIMIT"
	// CodeProviderRequestFailed - any other non-success provider response.
	CodeProviderRequestFailed Code = "PROVIDER_REQUEST_FAILED"
	// CodeUploadFailed - a required file could not be resolved or transmitted.
	CodeUploadFailed Code = "UPLOAD_FAILED"
	// CodeDeployFailed - the provider reported a terminal error state.
	CodeDeployFailed Code = "DEPLOY_FAILED"
	// CodeDeployTimeout - the deployment never reached a terminal state
	// within the polling budget.
	CodeDeployTimeout Code = "DEPLOY_TIMEOUT"
	// CodeNoPublicURL - the deployment is ready but exposes no usable URL.
	CodeNoPublicURL Code = "NO_PUBLIC_URL"
	// CodeDeployError - catch-all wrapping an unrecognized cause.
	CodeDeployError Code = "DEPLOY_ERROR"
)

// Error is the tagged error type surfaced by the deploy pipeline.
type Error struct {
	Code    Code
	Message string
	// Status carries the provider HTTP status when one is involved; zero
	// otherwise. Diagnostic only.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the taxonomy code from err, or CodeDeployError if err is
// not (and does not wrap) a deploy error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeDeployError
}

// wrapUnknown passes taxonomy errors through unchanged and wraps anything
// else into the DEPLOY_ERROR catch-all, keeping the cause for diagnostics.
func wrapUnknown(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Code: CodeDeployError, Message: "unexpected deployment failure", Err: err}
}
