package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ai_site_server/internal/ai/prompts"
	"ai_site_server/internal/ai/utils"
	"ai_site_server/internal/content"
	"ai_site_server/internal/types"
)

const systemMessage = "You are a helpful AI assistant that generates code based on user prompts and specific formatting instructions."

// GenerateSite asks the model for a static website matching the user prompt
// and returns it as a validated file set. Transient model failures get one
// retry; parse failures and content-policy violations surface as
// *InvalidOutputError.
func (g *Generator) GenerateSite(ctx context.Context, userPrompt string) (content.FileSet, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}
	if len(userPrompt) > MaxPromptChars {
		return nil, fmt.Errorf("prompt exceeds %d characters", MaxPromptChars)
	}

	fullPrompt := fmt.Sprintf(prompts.GetSiteGenerationPrompt(), userPrompt)

	request := openai.ChatCompletionRequest{
		Model: g.modelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: fullPrompt},
		},
		// Lower temperature for more predictable code generation.
		Temperature: 0.3,
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	if err != nil && utils.ShouldRetry(err) {
		log.Printf("Model call failed, retrying once after delay... Error: %v", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
		resp, err = g.client.CreateChatCompletion(ctx, request)
	}
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &InvalidOutputError{Reason: "model returned an empty response"}
	}

	files, err := parseGeneratedFiles(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	fs := make(content.FileSet, len(files))
	for _, f := range files {
		if f.Filename == "" {
			return nil, &InvalidOutputError{Reason: "model emitted a file without a filename"}
		}
		fs[content.NormalizePath(f.Filename)] = f.Content
	}

	if err := content.Validate(fs); err != nil {
		return nil, &InvalidOutputError{Reason: "generated site failed content validation", Err: err}
	}
	log.Printf("Model generated %d file(s) passing validation", len(fs))
	return fs, nil
}

// parseGeneratedFiles decodes the model's output into file entries. Models
// do not reliably honor the output format, so after stripping markdown
// fences this tries, in order: a bare JSON array, a single JSON object, and
// an object wrapping the array under a well-known key.
func parseGeneratedFiles(raw string) ([]types.GeneratedFile, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var files []types.GeneratedFile
	if err := json.Unmarshal([]byte(cleaned), &files); err == nil {
		return files, nil
	}

	var single types.GeneratedFile
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil && single.Filename != "" {
		return []types.GeneratedFile{single}, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &wrapper); err == nil {
		for _, key := range []string{"files", "result", "code", "data", "output"} {
			rawFiles, ok := wrapper[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(rawFiles, &files); err == nil && len(files) > 0 {
				log.Printf("Parsed model output from wrapped key %q", key)
				return files, nil
			}
		}
	}

	return nil, &InvalidOutputError{Reason: "output did not parse as a file array"}
}
