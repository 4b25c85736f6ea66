package ai

import (
	openai "github.com/sashabaranov/go-openai"
)

// MaxPromptChars caps the user prompt length accepted by the generator.
const MaxPromptChars = 500

// Generator turns a natural-language prompt into a static website file set
// using a hosted chat-completion model.
type Generator struct {
	client  *openai.Client
	modelID string
}

// NewGenerator builds a generator for the given API key and model. An empty
// modelID falls back to GPT-4o.
func NewGenerator(apiKey, modelID string) *Generator {
	if modelID == "" {
		modelID = openai.GPT4o
	}
	return &Generator{
		client:  openai.NewClient(apiKey),
		modelID: modelID,
	}
}

// Ready reports whether the generator has a usable configuration. Used by
// the health endpoint; it does not call the model.
func (g *Generator) Ready() bool { return g != nil && g.client != nil }

// InvalidOutputError reports that the model responded, but its output failed
// to parse as a file map or failed content validation. Callers typically
// translate this into a request for a simpler prompt rather than retrying
// mechanically.
type InvalidOutputError struct {
	Reason string
	Err    error
}

func (e *InvalidOutputError) Error() string {
	msg := "model produced invalid output: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidOutputError) Unwrap() error { return e.Err }
