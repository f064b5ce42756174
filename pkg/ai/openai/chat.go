package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/common"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

// Generate sends a single-turn prompt to the chat model.
//
// With ai.WithGrounding the request enables web search options; this requires
// a search capable model (e.g. gpt-4o-search-preview), and URL citation
// annotations are returned as citations. With ai.WithFormat the response is
// constrained to the JSON schema of the requested shape.
//
// Example:
//
//	gen, err := client.Generate(ctx, "Summarize this text...")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(gen.Text)
func (c *OpenAIClient) Generate(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (*ai.Generation, error) {
	options := ai.NewGenerateOptions(c.model, 0.3, opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(options.Model),
		Messages: msgs,
	}

	// Search models reject sampling parameters.
	if !options.Grounding {
		body.Temperature = openai.Float(options.Temperature)
	}

	if options.Grounding {
		body.WebSearchOptions = openai.ChatCompletionNewParamsWebSearchOptions{
			SearchContextSize: "medium",
		}
	} else if options.Format != nil {
		body.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        options.Format.Name,
					Description: openai.String(options.Format.Description),
					Schema:      options.Format.Schema,
					Strict:      openai.Bool(false),
				},
			},
		}
	}

	if options.Thinking != "" {
		// Needed fix for gpt-5 models as they dont support temperature other than 1.0 when reasoning is enabled
		if c.chatURL == "" {
			body.Temperature = openai.Float(1.0)
		}
		body.ReasoningEffort = shared.ReasoningEffort(options.Thinking)
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrBackendUnavailable, err)
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrBackendUnavailable, err)
	}
	duration := time.Since(start).Milliseconds()

	c.Record(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response from model", ai.ErrBackendUnavailable)
	}
	message := response.Choices[0].Message

	generation := &ai.Generation{
		Text:      message.Content,
		Citations: []common.Citation{},
	}
	for _, annotation := range message.Annotations {
		if annotation.URLCitation.URL == "" {
			continue
		}
		generation.Citations = append(generation.Citations, common.Citation{
			URI:   annotation.URLCitation.URL,
			Title: annotation.URLCitation.Title,
		})
	}

	return generation, nil
}
