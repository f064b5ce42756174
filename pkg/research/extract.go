package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/common"
	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"

	"github.com/go-playground/validator"
)

const mainCompanyID = "company-main"

var (
	validate = validator.New()

	errNoEntities = errors.New("no valid entities in response")
)

func fallbackExtraction(company string) common.Extraction {
	return common.Extraction{
		Entities: []common.Entity{{
			ID:          mainCompanyID,
			Name:        company,
			Type:        common.EntityTypeCompany,
			Description: "Main company being researched",
		}},
		Relationships: []common.Relationship{},
	}
}

// Extract turns findings into entities and relationships. The result always
// holds at least one entity: when nothing usable comes back the company
// itself is returned as the only entity.
func (a *Agent) Extract(ctx context.Context, findings []common.SearchFinding, company string) common.Extraction {
	texts := make([]string, 0, len(findings))
	for _, f := range findings {
		if t := strings.TrimSpace(f.Text); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		logger.Info("[Extract] No findings to extract from", "company", company)
		return fallbackExtraction(company)
	}

	text, truncated, err := ai.TruncateTokens(strings.Join(texts, "\n\n"), a.tokenEncoder, a.tokenBudget)
	if err != nil {
		logger.Warn("[Extract] Could not apply token budget", "err", err)
	}
	if truncated {
		logger.Info("[Extract] Findings truncated to token budget", "budget", a.tokenBudget)
	}

	types := make([]string, len(common.EntityTypes))
	for i, t := range common.EntityTypes {
		types[i] = string(t)
	}
	prompt := fmt.Sprintf(extractionPrompt, company, strings.Join(types, ", "), text)

	extraction, _ := generateAs(ctx, a.gen, "Extract", prompt, sanitizeExtraction, fallback[common.Extraction]{
		onBackend: func(error) common.Extraction { return fallbackExtraction(company) },
		onParse:   func(string) common.Extraction { return fallbackExtraction(company) },
	}, a.structuredOptions(
		"extract_company_information",
		"Extract entities and relationships about a company from search results.",
		common.Extraction{},
	)...)

	logger.Info("[Extract] Extraction finished",
		"company", company,
		"entities", len(extraction.Entities),
		"relationships", len(extraction.Relationships),
	)
	return extraction
}

// sanitizeExtraction drops invalid entities and relationships and coerces
// entity types into the closed vocabulary.
func sanitizeExtraction(e *common.Extraction) error {
	entities := make([]common.Entity, 0, len(e.Entities))
	for _, entity := range e.Entities {
		entity.ID = strings.TrimSpace(entity.ID)
		entity.Name = strings.TrimSpace(entity.Name)
		if err := validate.Struct(entity); err != nil {
			logger.Debug("[Extract] Dropping invalid entity", "entity", entity.ID, "err", err)
			continue
		}
		entity.Type = normalizeEntityType(entity.Type)
		entities = append(entities, entity)
	}
	if len(entities) == 0 {
		return errNoEntities
	}

	relationships := make([]common.Relationship, 0, len(e.Relationships))
	for _, rel := range e.Relationships {
		rel.Source = strings.TrimSpace(rel.Source)
		rel.Target = strings.TrimSpace(rel.Target)
		rel.Type = strings.TrimSpace(rel.Type)
		if err := validate.Struct(rel); err != nil {
			logger.Debug("[Extract] Dropping invalid relationship", "source", rel.Source, "target", rel.Target, "err", err)
			continue
		}
		relationships = append(relationships, rel)
	}

	e.Entities = entities
	e.Relationships = relationships
	return nil
}

func normalizeEntityType(t common.EntityType) common.EntityType {
	for _, known := range common.EntityTypes {
		if strings.EqualFold(strings.TrimSpace(string(t)), string(known)) {
			return known
		}
	}
	return common.EntityTypeOther
}
