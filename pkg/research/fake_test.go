package research

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
)

type callKind string

const (
	callInitial  callKind = "initial"
	callFollowUp callKind = "followup"
	callSearch   callKind = "search"
	callExtract  callKind = "extract"
	callSummary  callKind = "summary"
)

type fakeCall struct {
	Prompt  string
	Options ai.GenerateOptions
}

func (c fakeCall) Kind() callKind {
	switch {
	case c.Options.Grounding:
		return callSearch
	case c.Options.Format != nil && c.Options.Format.Name == "extract_company_information":
		return callExtract
	case c.Options.Format != nil && c.Options.Format.Name == "company_summary":
		return callSummary
	case strings.Contains(c.Prompt, "follow-up search queries"):
		return callFollowUp
	default:
		return callInitial
	}
}

// fakeGenerator answers every call with respond and records the calls.
type fakeGenerator struct {
	respond func(call fakeCall) (*ai.Generation, error)

	mu    sync.Mutex
	calls []fakeCall
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts ...ai.GenerateOption) (*ai.Generation, error) {
	call := fakeCall{Prompt: prompt, Options: ai.NewGenerateOptions("fake", 0, opts...)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	return f.respond(call)
}

func (f *fakeGenerator) count(kind callKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Kind() == kind {
			n++
		}
	}
	return n
}

func text(s string) *ai.Generation {
	return &ai.Generation{Text: s}
}

func newTestAgent(gen ai.Generator, reporter Reporter) *Agent {
	return NewAgent(NewAgentParams{
		Generator:        gen,
		Reporter:         reporter,
		ParallelSearches: 3,
		Now: func() time.Time {
			return time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
		},
	})
}
