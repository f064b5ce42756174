package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OFFIS-RIT/dossier/backend/internal/progress"
	mid "github.com/OFFIS-RIT/dossier/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/dossier/backend/pkg/common"

	"github.com/stretchr/testify/require"
)

type fakeResearcher struct {
	registry *progress.Registry

	mu    sync.Mutex
	calls []string
}

func (f *fakeResearcher) Research(ctx context.Context, company string, location string, sessionKey string) common.CompanyData {
	f.mu.Lock()
	f.calls = append(f.calls, company+"|"+location+"|"+sessionKey)
	f.mu.Unlock()

	f.registry.Record(sessionKey, "Generating initial search queries...")
	f.registry.Record(sessionKey, "Research complete.")
	return common.CompanyData{
		CompanyName: company,
		Summary:     "Acme Corp makes anvils.",
		Entities:    map[string][]common.EntityItem{},
		RedFlags:    []string{},
		Sources:     []common.Citation{},
		KnowledgeGraph: common.KnowledgeGraph{
			Nodes: []common.GraphNode{},
			Edges: []common.GraphEdge{},
		},
	}
}

func newTestApp(t *testing.T) (*mid.App, *fakeResearcher) {
	t.Helper()
	registry := progress.NewRegistry(progress.NewRegistryParams{GracePeriod: time.Minute})
	t.Cleanup(registry.Close)
	researcher := &fakeResearcher{registry: registry}
	return &mid.App{
		Progress:     registry,
		Agent:        researcher,
		PingInterval: time.Hour,
	}, researcher
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	e := NewEcho(app)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestGetResearch_InvalidInput(t *testing.T) {
	app, researcher := newTestApp(t)
	e := NewEcho(app)

	for _, target := range []string{"/api/research", "/api/research?companyName=%20%20"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.JSONEq(t, `{"error":"Invalid input parameters"}`, rec.Body.String())
	}
	require.Empty(t, researcher.calls)
}

func TestGetResearch_RunsInSession(t *testing.T) {
	app, researcher := newTestApp(t)
	e := NewEcho(app)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/research?companyName=Acme%20%20Corp&location=Berlin", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var data common.CompanyData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	require.Equal(t, "Acme  Corp", data.CompanyName)
	require.Equal(t, []string{"Acme  Corp|Berlin|acme-corp"}, researcher.calls)

	// retired sessions stay readable during the grace period
	require.Equal(t, []string{"Generating initial search queries...", "Research complete."}, app.Progress.Log("acme-corp"))
}

func TestGetResearchProgress_MissingCompany(t *testing.T) {
	app, _ := newTestApp(t)
	e := NewEcho(app)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/research/progress", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Company name is required", rec.Body.String())
}

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line != "" {
			return line
		}
	}
}

func TestGetResearchProgress_StreamsHistoryThenLive(t *testing.T) {
	app, _ := newTestApp(t)
	srv := httptest.NewServer(NewEcho(app))
	defer srv.Close()

	app.Progress.Create("acme-corp")
	app.Progress.Record("acme-corp", "Generating initial search queries...")

	resp, err := http.Get(srv.URL + "/api/research/progress?company=Acme+Corp")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	require.Equal(t, `data: {"progress":"Generating initial search queries..."}`, readEvent(t, r))

	app.Progress.Record("acme-corp", "Performing initial searches...")
	require.Equal(t, `data: {"progress":"Performing initial searches..."}`, readEvent(t, r))

	app.Progress.Close()
	done := make(chan string, 1)
	go func() {
		rest, _ := io.ReadAll(r)
		done <- string(rest)
	}()
	select {
	case rest := <-done:
		require.Empty(t, strings.TrimSpace(rest))
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the registry closed")
	}
}

func TestGetResearchProgress_Ping(t *testing.T) {
	app, _ := newTestApp(t)
	app.PingInterval = 10 * time.Millisecond
	srv := httptest.NewServer(NewEcho(app))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/research/progress?company=Acme")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, ": ping", readEvent(t, bufio.NewReader(resp.Body)))
	require.Empty(t, app.Progress.Log("acme"))
}
