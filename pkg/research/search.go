package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/dossier/backend/internal/util"
	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/common"
	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Search runs one grounded backend call for query. Backend failures are
// returned as *SearchError; the text is never parsed.
func (a *Agent) Search(ctx context.Context, query string) (common.SearchFinding, error) {
	logger.Info("[Search] Searching", "query", query)

	prompt := fmt.Sprintf(searchPrompt, query)
	res, err := util.RetryWithContext(ctx, a.searchRetries, a.searchBackoff, func(ctx context.Context) (*ai.Generation, error) {
		return a.gen.Generate(ctx, prompt, ai.WithGrounding())
	})
	if err != nil {
		return common.SearchFinding{}, &SearchError{Query: query, Err: err}
	}

	finding := common.SearchFinding{
		Query:      query,
		Text:       res.Text,
		Citations:  res.Citations,
		EntryPoint: res.EntryPoint,
	}
	if finding.Citations == nil {
		finding.Citations = []common.Citation{}
	}
	return finding, nil
}

// SearchRound searches all queries concurrently and returns the findings in
// query order. Failed queries are dropped; only a round in which every query
// failed returns an error, wrapping ErrRoundFailed.
func (a *Agent) SearchRound(ctx context.Context, queries []string) ([]common.SearchFinding, error) {
	if len(queries) == 0 {
		return []common.SearchFinding{}, nil
	}

	results := make([]*common.SearchFinding, len(queries))
	errs := make([]error, len(queries))

	var g errgroup.Group
	g.SetLimit(a.parallelSearches)
	for i, query := range queries {
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					errs[i] = &SearchError{Query: query, Err: fmt.Errorf("%w: %v", ErrInternal, rec)}
					logger.Error("[Search] Query panicked", "query", query, "err", errs[i])
				}
			}()

			finding, err := a.Search(ctx, query)
			if err != nil {
				logger.Warn("[Search] Query failed", "query", query, "err", err)
				errs[i] = err
				return nil
			}
			results[i] = &finding
			return nil
		})
	}
	_ = g.Wait()

	findings := make([]common.SearchFinding, 0, len(queries))
	for _, r := range results {
		if r != nil {
			findings = append(findings, *r)
		}
	}
	if len(findings) == 0 {
		return findings, fmt.Errorf("%w: %w", ErrRoundFailed, errors.Join(errs...))
	}

	return findings, nil
}
