package convert

import (
	"context"

	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/internal/logging"
)

// Policy decides what a document-level failure does to a batch.
//
// The zero value is best effort: the failure is logged and the batch moves
// on. FailFast must be asked for.
type Policy struct {
	FailFast bool
}

// Handle returns err as a structural error under fail-fast. Otherwise it
// logs the failure of document and returns nil.
func (p Policy) Handle(ctx context.Context, document string, err error) error {
	if err == nil {
		return nil
	}
	err = errors.NewStructural(document, err)
	if p.FailFast {
		return err
	}
	logging.DocumentFailure(ctx, document, err)
	return nil
}
