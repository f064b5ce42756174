package research

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/OFFIS-RIT/dossier/backend/pkg/common"
	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// run carries the mutable state of one Research call.
type run struct {
	id         string
	company    string
	sessionKey string
	reporter   Reporter
	finished   bool

	seenSources map[string]struct{}
	data        common.CompanyData
}

func (r *run) report(message string) {
	logger.Info("[Research] "+message, "run", r.id, "company", r.company)
	if r.sessionKey != "" {
		r.reporter.Record(r.sessionKey, message)
	}
}

func (r *run) enter(stage Stage) {
	if stage == StageDone {
		if r.finished {
			return
		}
		r.finished = true
	}
	r.report(stage.Message())
}

func (r *run) collect(findings []common.SearchFinding) {
	for _, f := range findings {
		for _, c := range f.Citations {
			if _, ok := r.seenSources[c.URI]; ok {
				continue
			}
			r.seenSources[c.URI] = struct{}{}
			r.data.Sources = append(r.data.Sources, c)
		}
		if f.EntryPoint != "" {
			r.data.SearchEntryPoints = append(r.data.SearchEntryPoints, f.EntryPoint)
		}
	}
}

// Research runs the whole pipeline for company and reports every stage to
// the session sessionKey; an empty key only logs. It never fails: stage
// errors degrade that stage's contribution and the returned CompanyData is
// always fully populated.
func (a *Agent) Research(ctx context.Context, company string, location string, sessionKey string) (data common.CompanyData) {
	id, err := gonanoid.New()
	if err != nil {
		id = "unknown"
	}
	r := &run{
		id:          id,
		company:     company,
		sessionKey:  sessionKey,
		reporter:    a.reporter,
		seenSources: make(map[string]struct{}),
		data: common.CompanyData{
			CompanyName:       company,
			Entities:          map[string][]common.EntityItem{},
			RedFlags:          []string{},
			Sources:           []common.Citation{},
			SearchEntryPoints: []string{},
			KnowledgeGraph: common.KnowledgeGraph{
				Nodes: []common.GraphNode{},
				Edges: []common.GraphEdge{},
			},
		},
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%w: %v", ErrInternal, rec)
			logger.Error("[Research] Research process failed", "run", r.id, "company", company, "err", err, "stack", string(debug.Stack()))

			r.data.Summary = fmt.Sprintf("An error occurred while researching %s. Some information may be incomplete.", company)
			r.data.RedFlags = append(r.data.RedFlags, "Research process encountered errors")
			if len(r.data.KnowledgeGraph.Nodes) == 0 {
				r.data.KnowledgeGraph = BuildGraph(company, nil, nil)
			}
			r.enter(StageDone)
		}
		data = r.data
	}()

	a.run(ctx, r, location)
	return r.data
}

func (a *Agent) run(ctx context.Context, r *run, location string) {
	company := r.company

	r.enter(StagePlanningInitial)
	initialQueries := a.InitialQueries(ctx, company, location)

	r.enter(StageSearchingInitial)
	initialFindings, err := a.SearchRound(ctx, initialQueries)
	if err != nil {
		logger.Error("[Research] Initial search failed", "run", r.id, "err", err)
		r.report(InitialSearchDegraded)
	}
	r.collect(initialFindings)

	r.enter(StageExtractingInitial)
	initial := a.Extract(ctx, initialFindings, company)

	r.enter(StagePlanningFollowUp)
	followUpQueries := a.FollowUpQueries(ctx, company, initial)

	r.enter(StageSearchingFollowUp)
	followUpFindings, err := a.SearchRound(ctx, followUpQueries)
	if err != nil {
		logger.Error("[Research] Follow-up search failed", "run", r.id, "err", err)
		r.report(FollowUpSearchDegraded)
	}
	r.collect(followUpFindings)

	r.enter(StageExtractingFollowUp)
	additional := a.Extract(ctx, followUpFindings, company)

	entities := make([]common.Entity, 0, len(initial.Entities)+len(additional.Entities))
	entities = append(entities, initial.Entities...)
	entities = append(entities, additional.Entities...)
	relationships := make([]common.Relationship, 0, len(initial.Relationships)+len(additional.Relationships))
	relationships = append(relationships, initial.Relationships...)
	relationships = append(relationships, additional.Relationships...)

	r.enter(StageBuildingGraph)
	r.data.KnowledgeGraph = BuildGraph(company, entities, relationships)

	r.enter(StageSummarizing)
	findings := make([]common.SearchFinding, 0, len(initialFindings)+len(followUpFindings))
	findings = append(findings, initialFindings...)
	findings = append(findings, followUpFindings...)
	summary := a.Summarize(ctx, company, r.data.KnowledgeGraph, entities, findings)
	r.data.Summary = summary.Summary
	r.data.RedFlags = append(r.data.RedFlags, summary.RedFlags...)
	r.data.Entities = summary.StructuredEntities

	r.enter(StageDone)
}
