package openai

import (
	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// OpenAIClient implements ai.Generator against any OpenAI compatible chat
// completions endpoint.
//
// A OpenAIClient should be created using NewOpenAIClient.
type OpenAIClient struct {
	ai.MetricsRecorder

	model   string
	chatURL string
	reqLock *semaphore.Weighted

	ChatClient *openai.Client
}

// NewOpenAIClientParams defines the configuration parameters for creating
// a new OpenAIClient.
//
// Model is the chat model used for every research stage.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL targets api.openai.com.
type NewOpenAIClientParams struct {
	Model   string
	ChatURL string
	ChatKey string

	MaxConcurrentRequests int64
}

// NewOpenAIClient creates and returns a new OpenAIClient configured with
// the provided parameters.
//
// Example:
//
//	client := openai.NewOpenAIClient(openai.NewOpenAIClientParams{
//		Model:   "gpt-4o-mini",
//		ChatKey: os.Getenv("OPENAI_API_KEY"),
//	})
func NewOpenAIClient(params NewOpenAIClientParams) *OpenAIClient {
	maxRequests := params.MaxConcurrentRequests
	if maxRequests <= 0 {
		maxRequests = 1
	}

	return &OpenAIClient{
		model:      params.Model,
		chatURL:    params.ChatURL,
		reqLock:    semaphore.NewWeighted(maxRequests),
		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
