package dataset

import "errors"

var (
	// ErrMissingColumns indicates a table lacks required columns.
	// For movie and rating tables this is a configuration error; for
	// text-profile tables callers skip the source with a warning.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrEmptyTable indicates a table contains a header but no rows.
	ErrEmptyTable = errors.New("table has no rows")
)
