package utils

import (
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ShouldRetry reports whether a model call failed with a transient condition
// worth one more attempt (rate limits, upstream 5xx, network hiccups).
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	// Check for specific OpenAI error types first.
	var openAIErr *openai.APIError
	if errors.As(err, &openAIErr) {
		return openAIErr.HTTPStatusCode >= 500 || openAIErr.HTTPStatusCode == 429
	}
	// Fall back to matching well-known transient failure messages.
	errMsg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit",
		"500 internal server error",
		"502 bad gateway",
		"503 service unavailable",
		"504 gateway timeout",
		"timeout",
		"connection reset by peer",
	} {
		if strings.Contains(errMsg, marker) {
			return true
		}
	}
	return false
}
