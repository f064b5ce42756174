package research

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/dossier/backend/pkg/ai"
	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"
)

// fallback produces the value a stage returns instead of a decoded response.
type fallback[T any] struct {
	onBackend func(err error) T
	onParse   func(raw string) T
}

// generateAs calls the backend once and decodes the answer as T. finish may
// normalize the decoded value and reject it, which counts as a parse failure.
//
// The returned value is always usable: on failure it comes from fb and the
// error only classifies what went wrong.
func generateAs[T any](
	ctx context.Context,
	gen ai.Generator,
	stage string,
	prompt string,
	finish func(*T) error,
	fb fallback[T],
	opts ...ai.GenerateOption,
) (T, error) {
	res, err := gen.Generate(ctx, prompt, opts...)
	if err != nil {
		logger.Error("["+stage+"] Backend call failed", "err", err)
		return fb.onBackend(err), err
	}

	var out T
	err = ai.UnmarshalFlexible(ai.StripCodeFence(res.Text), &out)
	if err == nil && finish != nil {
		err = finish(&out)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUnparsableResponse, err)
		logger.Warn("["+stage+"] Could not decode response", "err", err, "size", len(res.Text))
		logger.Debug("["+stage+"] Raw text that failed to parse", "text", res.Text)
		return fb.onParse(res.Text), err
	}

	return out, nil
}
