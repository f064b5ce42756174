package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/dossier/backend/internal/progress"
	"github.com/OFFIS-RIT/dossier/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetResearchHandler researches a company within the request and returns the
// CompanyData. Progress is recorded under the session derived from the
// company name for the whole run and retired afterwards.
func GetResearchHandler(c echo.Context) error {
	type getResearchParams struct {
		CompanyName string `query:"companyName" validate:"required"`
		Location    string `query:"location"`
	}

	type errorResponse struct {
		Error string `json:"error"`
	}

	params := new(getResearchParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid input parameters"})
	}
	params.CompanyName = strings.TrimSpace(params.CompanyName)
	params.Location = strings.TrimSpace(params.Location)
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid input parameters"})
	}

	app := c.(*middleware.AppContext).App

	key := progress.SessionKey(params.CompanyName)
	session := app.Progress.Create(key)
	defer app.Progress.Retire(session)

	ctx := c.Request().Context()
	if app.ResearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.ResearchTimeout)
		defer cancel()
	}

	logger.Info("[Server] Research requested", "company", params.CompanyName, "location", params.Location, "session", key)
	data := app.Agent.Research(ctx, params.CompanyName, params.Location, key)

	return c.JSON(http.StatusOK, data)
}
