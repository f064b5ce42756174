package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/dossier/backend/pkg/common"
)

const rawSummaryLimit = 500

var errEmptySummary = errors.New("empty summary")

// Summary is the narrative result of a research run.
type Summary struct {
	Summary            string                         `json:"summary" jsonschema_description:"Detailed 300-500 word summary of the company"`
	RedFlags           []string                       `json:"redFlags" jsonschema_description:"Potential red flags or inconsistencies"`
	StructuredEntities map[string][]common.EntityItem `json:"structuredEntities" jsonschema_description:"Entities grouped by category, e.g. executives, products, subsidiaries, locations"`
}

// Summarize writes the summary, red flags and categorized entities for
// company. It never fails; backend and format errors produce a notice summary
// with a red flag describing the failure.
func (a *Agent) Summarize(
	ctx context.Context,
	company string,
	graph common.KnowledgeGraph,
	entities []common.Entity,
	findings []common.SearchFinding,
) Summary {
	graphJSON, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		graphJSON = []byte("{}")
	}
	entitiesJSON, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		entitiesJSON = []byte("[]")
	}
	prompt := fmt.Sprintf(summaryPrompt, company, graphJSON, entitiesJSON, sourceTitles(findings))

	summary, _ := generateAs(ctx, a.gen, "Summary", prompt, finishSummary, fallback[Summary]{
		onBackend: func(error) Summary {
			return Summary{
				Summary:            fmt.Sprintf("We encountered an error while researching %s. Please try again later.", company),
				RedFlags:           []string{"Summary generation failed - API error"},
				StructuredEntities: map[string][]common.EntityItem{},
			}
		},
		onParse: func(raw string) Summary {
			return Summary{
				Summary: fmt.Sprintf(
					"Information about %s has been gathered, but could not be properly formatted. Here's what we found: %s...",
					company,
					truncateRunes(raw, rawSummaryLimit),
				),
				RedFlags:           []string{"Summary generation failed - formatting error"},
				StructuredEntities: map[string][]common.EntityItem{},
			}
		},
	}, a.structuredOptions("company_summary", "Summary, red flags and categorized entities of a company.", Summary{})...)

	return summary
}

func finishSummary(s *Summary) error {
	s.Summary = strings.TrimSpace(s.Summary)
	if s.Summary == "" {
		return errEmptySummary
	}

	flags := make([]string, 0, len(s.RedFlags))
	for _, f := range s.RedFlags {
		if f = strings.TrimSpace(f); f != "" {
			flags = append(flags, f)
		}
	}
	s.RedFlags = flags

	if s.StructuredEntities == nil {
		s.StructuredEntities = map[string][]common.EntityItem{}
	}
	for category, items := range s.StructuredEntities {
		if items == nil {
			s.StructuredEntities[category] = []common.EntityItem{}
		}
	}
	return nil
}

func sourceTitles(findings []common.SearchFinding) string {
	var sb strings.Builder
	seen := make(map[string]struct{})
	for _, f := range findings {
		for _, c := range f.Citations {
			if c.Title == "" {
				continue
			}
			if _, ok := seen[c.Title]; ok {
				continue
			}
			seen[c.Title] = struct{}{}
			sb.WriteString("- ")
			sb.WriteString(c.Title)
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		return "none"
	}
	return sb.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
