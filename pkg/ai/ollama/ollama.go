package ollama

import (
	"net/http"
	"net/url"

	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// OllamaClient implements ai.Generator using a (possibly remote) Ollama server.
// Ollama has no search grounding, so generations never carry citations.
type OllamaClient struct {
	ai.MetricsRecorder

	model         string
	tokenEncoding string

	reqLock *semaphore.Weighted

	Client *api.Client
}

// NewOllamaClientParams contains configuration options for creating a new OllamaClient.
type NewOllamaClientParams struct {
	Model string

	BaseURL string
	ApiKey  string

	// TokenEncoding is the tiktoken encoding used to size the context window.
	TokenEncoding string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewOllamaClient creates a new Ollama-based generator.
// It connects to the Ollama server at the given BaseURL (or the default if empty).
func NewOllamaClient(
	params NewOllamaClientParams,
) (*OllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	maxRequests := params.MaxConcurrentRequests
	if maxRequests <= 0 {
		maxRequests = 1
	}
	encoding := params.TokenEncoding
	if encoding == "" {
		encoding = "o200k_base"
	}

	return &OllamaClient{
		model:         params.Model,
		tokenEncoding: encoding,
		reqLock:       semaphore.NewWeighted(maxRequests),
		Client:        api.NewClient(u, httpClient),
	}, nil
}
