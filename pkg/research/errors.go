package research

import (
	"errors"
	"fmt"
)

var (
	// ErrUnparsableResponse marks backend text that did not decode to the
	// expected shape. Stages convert it into their fallback value.
	ErrUnparsableResponse = errors.New("unparsable response")

	// ErrRoundFailed is returned by SearchRound when every query of the
	// round failed.
	ErrRoundFailed = errors.New("search round failed")

	// ErrInternal wraps a recovered panic from inside a research run.
	ErrInternal = errors.New("internal research error")
)

// SearchError is returned by Search when the backend call for a query could
// not complete.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}
