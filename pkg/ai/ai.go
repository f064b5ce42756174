package ai

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/dossier/backend/pkg/common"
)

// ErrBackendUnavailable is wrapped by every backend error returned from a
// Generator. The call itself failed (network, quota, empty response); it is
// never used for content that fails to parse.
var ErrBackendUnavailable = errors.New("generation backend unavailable")

// Generation is the result of a single generation call.
type Generation struct {
	Text       string            // Freeform model output
	Citations  []common.Citation // Grounding references, empty unless grounding was requested and supported
	EntryPoint string            // Rendered search entry point for attribution, may be empty
}

// ResponseFormat asks the backend to constrain its output to a JSON schema.
// Backends that cannot enforce a schema fall back to plain JSON mode or ignore it.
type ResponseFormat struct {
	Name        string
	Description string
	Schema      any
}

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string          // Model identifier to use for generation
	SystemPrompts []string        // System prompts prepended to the request
	Temperature   float64         // Sampling temperature (0.0-2.0)
	Thinking      string          // Extended thinking mode configuration
	Grounding     bool            // Ground the answer with web search and return citations
	Format        *ResponseFormat // Optional structured output constraint
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	Requests       int     `json:"requests"`
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
// Higher values (e.g., 1.0) produce more random outputs, while lower values
// (e.g., 0.2) make outputs more focused and deterministic.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithThinking returns a GenerateOption that enables extended thinking mode.
func WithThinking(thinking string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Thinking = thinking
	}
}

// WithGrounding returns a GenerateOption that enables search grounding.
// Grounded generations carry the citations the backend attached.
func WithGrounding() GenerateOption {
	return func(o *GenerateOptions) {
		o.Grounding = true
	}
}

// WithFormat returns a GenerateOption that requests structured output shaped
// like out. The schema is derived from out via reflection.
func WithFormat(name string, description string, out any) GenerateOption {
	return func(o *GenerateOptions) {
		o.Format = &ResponseFormat{
			Name:        name,
			Description: description,
			Schema:      GenerateSchema(out),
		}
	}
}

// NewGenerateOptions applies opts on top of the given defaults.
func NewGenerateOptions(model string, temperature float64, opts ...GenerateOption) GenerateOptions {
	options := GenerateOptions{
		Model:       model,
		Temperature: temperature,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

// Generator is the text-generation backend used by every research stage.
//
// Generate returns an error wrapping ErrBackendUnavailable when the call could
// not complete. It never parses the returned text; decoding is the caller's job.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (*Generation, error)
}

// MeteredGenerator is a Generator that accumulates token and latency metrics.
type MeteredGenerator interface {
	Generator
	ResetMetrics()
	GetMetrics() ModelMetrics
}
