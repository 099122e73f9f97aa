// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrUpstream is returned when the language model could not be reached
// or answered with an error.
var ErrUpstream = errors.New("analysis service unavailable")

// maxInputChars caps how much document text is sent to the model.
const maxInputChars = 3200

const systemPrompt = `You are a legal document analyst. Analyze the document and respond with a JSON object with exactly these keys:
"summary": a concise plain-language summary of the document,
"risks": an array of strings, each describing one potential legal risk or unfavorable clause,
"key_points": an array of strings, each stating one important term or obligation.
Respond with JSON only, no surrounding text.`

// Result is the structured outcome of a document analysis. When the
// model answers with something other than the requested JSON, only Raw
// is populated.
type Result struct {
	Summary   string   `json:"summary"`
	Risks     []string `json:"risks"`
	KeyPoints []string `json:"key_points"`
	Raw       string   `json:"raw,omitempty"`
}

// Analyzer produces a Result for a piece of document text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Result, error)
}

// completionClient is the slice of the OpenAI client we use.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAnalyzer asks an OpenAI-compatible chat model for the analysis.
type OpenAIAnalyzer struct {
	client completionClient
	model  string
}

// NewOpenAIAnalyzer creates an analyzer backed by the OpenAI API. An
// empty baseURL uses the public endpoint, an empty model falls back to
// gpt-4o-mini.
func NewOpenAIAnalyzer(apiKey, baseURL, model string) (*OpenAIAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Analyze sends the text to the model and decodes the structured answer.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, text string) (*Result, error) {
	text = Truncate(text, maxInputChars)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrUpstream)
	}

	return parseResult(resp.Choices[0].Message.Content), nil
}

// parseResult decodes the model answer, falling back to the raw text
// when it is not the requested JSON shape.
func parseResult(answer string) *Result {
	cleaned := stripCodeFence(answer)

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil || result.Summary == "" {
		return &Result{Raw: strings.TrimSpace(answer)}
	}
	return &result
}

// stripCodeFence unwraps answers the model wrapped in a ```json block.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Truncate limits text to at most n characters, cutting on a rune
// boundary.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
