package middleware

import (
	"context"
	"time"

	"github.com/OFFIS-RIT/dossier/backend/internal/progress"
	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/common"

	"github.com/labstack/echo/v4"
)

// Researcher runs one research request. *research.Agent satisfies it.
type Researcher interface {
	Research(ctx context.Context, company string, location string, sessionKey string) common.CompanyData
}

type App struct {
	Progress *progress.Registry
	Agent    Researcher
	AiClient ai.MeteredGenerator

	// PingInterval is the keep-alive interval of progress streams.
	PingInterval time.Duration
	// ResearchTimeout caps a research request, zero means no cap.
	ResearchTimeout time.Duration
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
