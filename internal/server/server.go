package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/dossier/backend/internal/progress"
	mid "github.com/OFFIS-RIT/dossier/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/dossier/backend/internal/util"
	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/ai/gemini"
	oai "github.com/OFFIS-RIT/dossier/backend/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/dossier/backend/pkg/ai/openai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"
	"github.com/OFFIS-RIT/dossier/backend/pkg/research"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewEcho builds the HTTP server around app with the middleware stack and
// all routes registered.
func NewEcho(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)
	return e
}

func newAiClient(ctx context.Context) (ai.MeteredGenerator, error) {
	model := util.GetEnv("AI_CHAT_MODEL")
	parallel := int64(util.GetEnvInt("AI_PARALLEL_REQ", 15))

	adapter := util.GetEnvString("AI_ADAPTER", "gemini")
	switch adapter {
	case "ollama":
		return oai.NewOllamaClient(oai.NewOllamaClientParams{
			Model:                 model,
			BaseURL:               util.GetEnv("AI_CHAT_URL"),
			ApiKey:                util.GetEnv("AI_CHAT_KEY"),
			TokenEncoding:         util.GetEnvString("RESEARCH_TOKEN_ENCODER", "o200k_base"),
			MaxConcurrentRequests: parallel,
		})
	case "openai":
		return gai.NewOpenAIClient(gai.NewOpenAIClientParams{
			Model:                 model,
			ChatURL:               util.GetEnv("AI_CHAT_URL"),
			ChatKey:               util.GetEnv("AI_CHAT_KEY"),
			MaxConcurrentRequests: parallel,
		}), nil
	case "gemini":
		return gemini.NewGeminiClient(ctx, gemini.NewGeminiClientParams{
			Model:                 model,
			APIKey:                util.GetEnv("AI_CHAT_KEY"),
			Project:               util.GetEnv("GOOGLE_CLOUD_PROJECT"),
			Location:              util.GetEnvString("GOOGLE_CLOUD_LOCATION", "us-central1"),
			MaxConcurrentRequests: parallel,
		})
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
	}
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiClient, err := newAiClient(ctx)
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}

	registry := progress.NewRegistry(progress.NewRegistryParams{
		GracePeriod: util.GetEnvDuration("PROGRESS_GRACE_PERIOD", progress.DefaultGracePeriod),
		Buffer:      util.GetEnvInt("PROGRESS_BUFFER", progress.DefaultBuffer),
	})

	agent := research.NewAgent(research.NewAgentParams{
		Generator:        aiClient,
		Reporter:         registry,
		MaxQueries:       util.GetEnvInt("RESEARCH_MAX_QUERIES", 5),
		ParallelSearches: util.GetEnvInt("RESEARCH_PARALLEL_SEARCHES", 5),
		SearchRetries:    util.GetEnvInt("RESEARCH_SEARCH_RETRIES", 1),
		SearchBackoff:    time.Second,
		TokenBudget:      util.GetEnvInt("RESEARCH_PROMPT_TOKEN_BUDGET", 0),
		TokenEncoder:     util.GetEnvString("RESEARCH_TOKEN_ENCODER", "o200k_base"),

		PlanningTemperature:   util.GetEnvFloat("AI_PLANNING_TEMPERATURE", 0.7),
		StructuredTemperature: util.GetEnvFloat("AI_STRUCTURED_TEMPERATURE", 0.2),
		StructuredModel:       util.GetEnv("AI_STRUCTURED_MODEL"),
		Thinking:              util.GetEnv("AI_THINKING"),
	})

	e := NewEcho(&mid.App{
		Progress:        registry,
		Agent:           agent,
		AiClient:        aiClient,
		PingInterval:    util.GetEnvDuration("PROGRESS_PING_INTERVAL", 15*time.Second),
		ResearchTimeout: util.GetEnvDuration("RESEARCH_TIMEOUT", 0),
	})

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	// ends open progress streams so Shutdown does not wait for them
	registry.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
	m := aiClient.GetMetrics()
	logger.Info("Server stopped", "ai_requests", m.Requests, "ai_total_tokens", m.TotalTokens)
}
