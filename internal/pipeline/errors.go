package pipeline

import "errors"

// Document-level failures. Each aborts the upload with a cause the UI
// can turn into actionable guidance; row-level problems never surface
// here, malformed rows are simply dropped during normalization.
var (
	// ErrEmptyFile means the upload contained no parseable content.
	ErrEmptyFile = errors.New("file is empty")

	// ErrTooManyRows means the upload exceeds MaxSourceRows.
	ErrTooManyRows = errors.New("file has too many rows")

	// ErrMissingColumns means no date, description and amount columns
	// could be resolved from the table headers.
	ErrMissingColumns = errors.New("could not detect date, description and amount columns")

	// ErrNoTransactions means parsing succeeded but every row was
	// dropped during normalization.
	ErrNoTransactions = errors.New("no valid transactions found")
)
