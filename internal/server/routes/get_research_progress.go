package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/OFFIS-RIT/dossier/backend/internal/progress"
	"github.com/OFFIS-RIT/dossier/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultPingInterval = 15 * time.Second

// GetResearchProgressHandler streams the progress of a research session as
// server-sent events: first the recorded history, then live messages until
// the session expires or the client disconnects.
func GetResearchProgressHandler(c echo.Context) error {
	type getResearchProgressParams struct {
		Company string `query:"company" validate:"required"`
	}

	type progressEvent struct {
		Progress string `json:"progress"`
	}

	params := new(getResearchProgressParams)
	if err := c.Bind(params); err != nil {
		return c.String(http.StatusBadRequest, "Company name is required")
	}
	params.Company = strings.TrimSpace(params.Company)
	if err := c.Validate(params); err != nil {
		return c.String(http.StatusBadRequest, "Company name is required")
	}

	app := c.(*middleware.AppContext).App
	key := progress.SessionKey(params.Company)

	sub, history := app.Progress.Subscribe(key)
	defer app.Progress.Unsubscribe(sub)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	send := func(message string) error {
		data, err := json.Marshal(progressEvent{Progress: message})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
			return err
		}
		res.Flush()
		return nil
	}

	for _, message := range history {
		if err := send(message); err != nil {
			return nil
		}
	}

	interval := app.PingInterval
	if interval <= 0 {
		interval = defaultPingInterval
	}
	ping := time.NewTicker(interval)
	defer ping.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("[Server] Progress client disconnected", "session", key)
			return nil
		case message, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := send(message); err != nil {
				return nil
			}
		case <-ping.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
