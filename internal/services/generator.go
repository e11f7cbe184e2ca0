package services

import "context"

// DefaultTemperature favors repeatable, structured output.
const DefaultTemperature float32 = 0.2

type GenerateRequest struct {
	Prompt string
	System string
	// Model and Temperature fall back to the client's configured defaults.
	Model       string
	Temperature *float32
	// JSON asks the provider for a JSON response body.
	JSON bool
	// Label names the call in logs ("flashcards", "ask", ...).
	Label string
}

// Generator turns a prompt into raw model text. Implementations return ""
// rather than an error when the provider answers with no text, and wrap
// provider failures in ErrGenerationFailed.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// DefaultSystemPrompt is used by generation routes that send no system text.
const DefaultSystemPrompt = "You are a helpful study assistant. Follow the requested output format exactly."
