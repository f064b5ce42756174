package research

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/common"

	"github.com/stretchr/testify/require"
)

func TestSearch_CapturesGrounding(t *testing.T) {
	gen := &fakeGenerator{respond: func(call fakeCall) (*ai.Generation, error) {
		require.True(t, call.Options.Grounding)
		return &ai.Generation{
			Text:       "Acme Corp was founded in 1949.",
			Citations:  []common.Citation{{URI: "https://acme.example", Title: "Acme"}},
			EntryPoint: "<div>search</div>",
		}, nil
	}}

	finding, err := newTestAgent(gen, nil).Search(context.Background(), "Acme Corp history")

	require.NoError(t, err)
	require.Equal(t, "Acme Corp history", finding.Query)
	require.Equal(t, "Acme Corp was founded in 1949.", finding.Text)
	require.Equal(t, []common.Citation{{URI: "https://acme.example", Title: "Acme"}}, finding.Citations)
	require.Equal(t, "<div>search</div>", finding.EntryPoint)
}

func TestSearch_TypedError(t *testing.T) {
	gen := &fakeGenerator{respond: func(fakeCall) (*ai.Generation, error) {
		return nil, ai.ErrBackendUnavailable
	}}

	_, err := newTestAgent(gen, nil).Search(context.Background(), "Acme Corp history")

	var searchErr *SearchError
	require.ErrorAs(t, err, &searchErr)
	require.Equal(t, "Acme Corp history", searchErr.Query)
	require.ErrorIs(t, err, ai.ErrBackendUnavailable)
}

func TestSearch_Retries(t *testing.T) {
	var calls atomic.Int32
	gen := &fakeGenerator{respond: func(fakeCall) (*ai.Generation, error) {
		if calls.Add(1) < 3 {
			return nil, ai.ErrBackendUnavailable
		}
		return text("ok"), nil
	}}
	agent := NewAgent(NewAgentParams{Generator: gen, SearchRetries: 3})

	finding, err := agent.Search(context.Background(), "q")

	require.NoError(t, err)
	require.Equal(t, "ok", finding.Text)
	require.EqualValues(t, 3, calls.Load())
}

func TestSearchRound_PreservesOrderAndDropsFailures(t *testing.T) {
	gen := &fakeGenerator{respond: func(call fakeCall) (*ai.Generation, error) {
		if strings.Contains(call.Prompt, "broken") {
			return nil, ai.ErrBackendUnavailable
		}
		for _, q := range []string{"first", "second", "third"} {
			if strings.Contains(call.Prompt, q) {
				return text(q + " result"), nil
			}
		}
		return text(""), nil
	}}

	findings, err := newTestAgent(gen, nil).SearchRound(context.Background(), []string{"first", "broken", "second", "third"})

	require.NoError(t, err)
	require.Len(t, findings, 3)
	require.Equal(t, "first result", findings[0].Text)
	require.Equal(t, "second result", findings[1].Text)
	require.Equal(t, "third result", findings[2].Text)
}

func TestSearchRound_AllFailed(t *testing.T) {
	gen := &fakeGenerator{respond: func(fakeCall) (*ai.Generation, error) {
		return nil, errors.New("network down")
	}}

	findings, err := newTestAgent(gen, nil).SearchRound(context.Background(), []string{"a", "b"})

	require.ErrorIs(t, err, ErrRoundFailed)
	var searchErr *SearchError
	require.ErrorAs(t, err, &searchErr)
	require.NotNil(t, findings)
	require.Empty(t, findings)
}

func TestSearchRound_Empty(t *testing.T) {
	gen := &fakeGenerator{respond: func(fakeCall) (*ai.Generation, error) {
		t.Fatal("no backend call expected")
		return nil, nil
	}}

	findings, err := newTestAgent(gen, nil).SearchRound(context.Background(), nil)

	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestSearchRound_PanickingQueryIsDropped(t *testing.T) {
	gen := &fakeGenerator{respond: func(call fakeCall) (*ai.Generation, error) {
		if strings.Contains(call.Prompt, "boom") {
			panic("unexpected backend state")
		}
		return text("fine"), nil
	}}

	findings, err := newTestAgent(gen, nil).SearchRound(context.Background(), []string{"boom", "ok"})

	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "ok", findings[0].Query)
}
