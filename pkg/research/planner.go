package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/dossier/backend/pkg/common"
	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"
)

var errNoQueries = errors.New("no usable queries in response")

var (
	initialFallbackTopics = []string{
		"official website",
		"company information",
		"executives leadership",
		"products services",
		"recent news",
	}
	initialBackendTopics = initialFallbackTopics[:3]

	followUpFallbackTopics = []string{
		"subsidiaries parent company",
		"history milestones",
		"CEO background",
		"competitors market position",
		"financial information",
	}
	followUpBackendTopics = []string{
		"subsidiaries parent company",
		"history milestones",
		"competitors market position",
	}
)

func topicQueries(company string, topics []string) []string {
	queries := make([]string, len(topics))
	for i, topic := range topics {
		queries[i] = company + " " + topic
	}
	return queries
}

// InitialQueries asks the backend for the first round of search queries. It
// never fails: unusable answers are replaced by a fixed list derived from the
// company name.
func (a *Agent) InitialQueries(ctx context.Context, company string, location string) []string {
	locationClause := ""
	if strings.TrimSpace(location) != "" {
		locationClause = " located in " + strings.TrimSpace(location)
	}
	prompt := fmt.Sprintf(
		initialQueriesPrompt,
		company,
		locationClause,
		a.now().Format("Monday, January 2, 2006"),
	)

	queries, _ := generateAs(ctx, a.gen, "Planner", prompt, a.finishQueries, fallback[[]string]{
		onBackend: func(error) []string { return topicQueries(company, initialBackendTopics) },
		onParse:   func(string) []string { return topicQueries(company, initialFallbackTopics) },
	}, a.planningOptions()...)

	logger.Debug("[Planner] Initial queries", "company", company, "queries", queries)
	return queries
}

// FollowUpQueries asks the backend for queries that fill the gaps of prior.
// Same fallback discipline as InitialQueries.
func (a *Agent) FollowUpQueries(ctx context.Context, company string, prior common.Extraction) []string {
	priorJSON, err := json.MarshalIndent(prior, "", "  ")
	if err != nil {
		priorJSON = []byte("{}")
	}
	prompt := fmt.Sprintf(followUpQueriesPrompt, company, priorJSON)

	queries, _ := generateAs(ctx, a.gen, "Planner", prompt, a.finishQueries, fallback[[]string]{
		onBackend: func(error) []string { return topicQueries(company, followUpBackendTopics) },
		onParse:   func(string) []string { return topicQueries(company, followUpFallbackTopics) },
	}, a.planningOptions()...)

	logger.Debug("[Planner] Follow-up queries", "company", company, "queries", queries)
	return queries
}

// finishQueries trims, drops blanks and case-insensitive duplicates and caps
// the list. An empty result is unusable.
func (a *Agent) finishQueries(queries *[]string) error {
	seen := make(map[string]struct{}, len(*queries))
	out := make([]string, 0, len(*queries))
	for _, q := range *queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		k := strings.ToLower(q)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, q)
		if len(out) == a.maxQueries {
			break
		}
	}
	if len(out) == 0 {
		return errNoQueries
	}
	*queries = out
	return nil
}
