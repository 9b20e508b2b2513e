package dma

import "context"

// Source produces the rows of one import run, in input order. Row-level
// problems are recorded on issues; only an unreadable source returns an error.
type Source interface {
	Name() string
	Ref() string
	Rows(ctx context.Context, issues *ImportIssues) ([]Row, error)
}

// Source names used in reports and import runs.
const (
	SourceCSV    = "csv"
	SourceLookup = "lookup"
)
