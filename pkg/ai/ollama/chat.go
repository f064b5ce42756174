package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/common"
	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"

	"github.com/ollama/ollama/api"
)

const defaultContextTokens = 4096

// Generate sends a single-turn prompt and returns the assistant text.
// ai.WithFormat is passed to Ollama as a JSON schema format; ai.WithGrounding
// is ignored.
func (c *OllamaClient) Generate(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (*ai.Generation, error) {
	options := ai.NewGenerateOptions(c.model, 0.3, opts...)

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	if options.Format != nil {
		formatBytes, err := json.Marshal(options.Format.Schema)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode response format: %w", ai.ErrBackendUnavailable, err)
		}
		req.Format = json.RawMessage(formatBytes)
	}

	if options.Thinking != "" {
		req.Think = &api.ThinkValue{
			Value: options.Thinking,
		}
	}

	tokens, err := ai.CountTokens(prompt, c.tokenEncoding)
	if err != nil {
		logger.Debug("[Ollama] Could not count prompt tokens", "err", err)
	} else if tokens+200 > defaultContextTokens {
		req.Options["num_ctx"] = tokens + 200
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrBackendUnavailable, err)
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrBackendUnavailable, err)
	}

	c.Record(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return &ai.Generation{
		Text:      final.Message.Content,
		Citations: []common.Citation{},
	}, nil
}
