package research

import (
	"time"

	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
)

// Reporter receives the progress messages of a research run.
// *progress.Registry satisfies it.
type Reporter interface {
	Record(key string, message string)
}

type nopReporter struct{}

func (nopReporter) Record(string, string) {}

// Agent researches companies with a text generation backend.
//
// An Agent should be created using NewAgent. It holds no per-run state and is
// safe for concurrent use.
type Agent struct {
	gen      ai.Generator
	reporter Reporter

	maxQueries       int
	parallelSearches int
	searchRetries    int
	searchBackoff    time.Duration
	tokenBudget      int
	tokenEncoder     string

	planningTemperature   float64
	structuredTemperature float64
	structuredModel       string
	thinking              string

	now func() time.Time
}

const (
	defaultPlanningTemperature   = 0.7
	defaultStructuredTemperature = 0.2
)

// NewAgentParams defines the configuration parameters for creating a new Agent.
//
// Generator is required. Reporter may be nil, in which case progress is only
// logged. MaxQueries caps every planned query list. ParallelSearches bounds
// concurrent searches within one round. SearchRetries is the number of
// attempts per search query. TokenBudget limits the findings passed to
// extraction, zero disables the limit. Now overrides the clock used in
// prompts.
//
// PlanningTemperature applies to query planning, StructuredTemperature and
// StructuredModel to extraction and summary; zero values keep the defaults
// (0.7, 0.2 and the generator's model). Thinking sets the reasoning effort of
// every non-search call.
type NewAgentParams struct {
	Generator ai.Generator
	Reporter  Reporter

	MaxQueries       int
	ParallelSearches int
	SearchRetries    int
	SearchBackoff    time.Duration
	TokenBudget      int
	TokenEncoder     string

	PlanningTemperature   float64
	StructuredTemperature float64
	StructuredModel       string
	Thinking              string

	Now func() time.Time
}

// NewAgent creates and returns a new Agent configured with the provided
// parameters.
//
// Example:
//
//	agent := research.NewAgent(research.NewAgentParams{
//		Generator:        client,
//		Reporter:         registry,
//		ParallelSearches: 5,
//	})
//	data := agent.Research(ctx, "Acme Corp", "", progress.SessionKey("Acme Corp"))
func NewAgent(params NewAgentParams) *Agent {
	a := &Agent{
		gen:              params.Generator,
		reporter:         params.Reporter,
		maxQueries:       params.MaxQueries,
		parallelSearches: params.ParallelSearches,
		searchRetries:    params.SearchRetries,
		searchBackoff:    params.SearchBackoff,
		tokenBudget:      params.TokenBudget,
		tokenEncoder:     params.TokenEncoder,

		planningTemperature:   params.PlanningTemperature,
		structuredTemperature: params.StructuredTemperature,
		structuredModel:       params.StructuredModel,
		thinking:              params.Thinking,

		now: params.Now,
	}

	if a.reporter == nil {
		a.reporter = nopReporter{}
	}
	if a.maxQueries <= 0 {
		a.maxQueries = 5
	}
	if a.parallelSearches <= 0 {
		a.parallelSearches = 5
	}
	if a.searchRetries <= 0 {
		a.searchRetries = 1
	}
	if a.tokenEncoder == "" {
		a.tokenEncoder = "o200k_base"
	}
	if a.planningTemperature <= 0 {
		a.planningTemperature = defaultPlanningTemperature
	}
	if a.structuredTemperature <= 0 {
		a.structuredTemperature = defaultStructuredTemperature
	}
	if a.now == nil {
		a.now = time.Now
	}

	return a
}

func (a *Agent) planningOptions() []ai.GenerateOption {
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(researcherSystemPrompt),
		ai.WithTemperature(a.planningTemperature),
	}
	if a.thinking != "" {
		opts = append(opts, ai.WithThinking(a.thinking))
	}
	return opts
}

// structuredOptions requests output shaped like out.
func (a *Agent) structuredOptions(name string, description string, out any) []ai.GenerateOption {
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(researcherSystemPrompt),
		ai.WithTemperature(a.structuredTemperature),
		ai.WithFormat(name, description, out),
	}
	if a.structuredModel != "" {
		opts = append(opts, ai.WithModel(a.structuredModel))
	}
	if a.thinking != "" {
		opts = append(opts, ai.WithThinking(a.thinking))
	}
	return opts
}
