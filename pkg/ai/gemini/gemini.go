package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/common"

	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"
)

// GeminiClient implements ai.Generator on top of the Google GenAI SDK.
// It is the only backend that supports search grounding, so it is the
// default for research.
//
// A GeminiClient should be created using NewGeminiClient.
type GeminiClient struct {
	ai.MetricsRecorder

	model   string
	reqLock *semaphore.Weighted

	Client *genai.Client
}

// NewGeminiClientParams contains configuration options for creating a new GeminiClient.
//
// When Project is set the client talks to Vertex AI in Location using
// application default credentials, otherwise it uses the Gemini API with APIKey.
type NewGeminiClientParams struct {
	Model    string
	APIKey   string
	Project  string
	Location string

	MaxConcurrentRequests int64
}

// NewGeminiClient creates a new Gemini-backed generator.
func NewGeminiClient(ctx context.Context, params NewGeminiClientParams) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  params.APIKey,
	}
	if params.Project != "" {
		cfg = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  params.Project,
			Location: params.Location,
		}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := params.Model
	if model == "" {
		model = "gemini-2.0-flash-001"
	}
	maxRequests := params.MaxConcurrentRequests
	if maxRequests <= 0 {
		maxRequests = 1
	}

	return &GeminiClient{
		model:   model,
		reqLock: semaphore.NewWeighted(maxRequests),
		Client:  client,
	}, nil
}

// Generate sends a single-turn prompt to the model. With ai.WithGrounding the
// request enables the Google Search tool and the grounding chunks are returned
// as citations together with the rendered search entry point.
func (c *GeminiClient) Generate(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (*ai.Generation, error) {
	options := ai.NewGenerateOptions(c.model, 0.3, opts...)
	config := generateConfig(options)

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrBackendUnavailable, err)
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := c.Client.Models.GenerateContent(ctx, options.Model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrBackendUnavailable, err)
	}
	duration := time.Since(start).Milliseconds()

	metrics := ai.ModelMetrics{DurationMs: duration}
	if usage := response.UsageMetadata; usage != nil {
		metrics.InputTokens = int(usage.PromptTokenCount)
		metrics.OutputTokens = int(usage.CandidatesTokenCount)
		metrics.TotalTokens = int(usage.TotalTokenCount)
	}
	c.Record(metrics)

	if len(response.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response from model", ai.ErrBackendUnavailable)
	}

	generation := &ai.Generation{
		Text:      response.Text(),
		Citations: []common.Citation{},
	}
	if grounding := response.Candidates[0].GroundingMetadata; grounding != nil {
		for _, chunk := range grounding.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			generation.Citations = append(generation.Citations, common.Citation{
				URI:   chunk.Web.URI,
				Title: chunk.Web.Title,
			})
		}
		if grounding.SearchEntryPoint != nil {
			generation.EntryPoint = grounding.SearchEntryPoint.RenderedContent
		}
	}

	return generation, nil
}

func generateConfig(options ai.GenerateOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(options.Temperature)),
	}
	if len(options.SystemPrompts) > 0 {
		config.SystemInstruction = genai.NewContentFromText(
			strings.Join(options.SystemPrompts, "\n\n"),
			genai.RoleUser,
		)
	}
	// The search tool cannot be combined with a JSON response mime type.
	if options.Grounding {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if options.Format != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = options.Format.Schema
	}
	return config
}
