package dma

import "time"

// ZipOccurrence is one source row that assigned a zip code to a region.
type ZipOccurrence struct {
	Line       int    `json:"line"`
	RegionCode int    `json:"region_code"`
	RegionName string `json:"region_name"`
}

// ZipConflict records a zip code seen with more than one distinct region code
// in a single run. The last occurrence wins.
type ZipConflict struct {
	Zip         string          `json:"zip"`
	Occurrences []ZipOccurrence `json:"occurrences"`
	WinningCode int             `json:"winning_code"`
}

// Where a naming conflict was detected.
const (
	ConflictInFile = "file"
	ConflictStored = "stored"
)

// NameConflict records a region code that arrived with a different name than
// the one seen before it, either earlier in the same input or in the store.
type NameConflict struct {
	Code    int    `json:"code"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
	Line    int    `json:"line"`
	Against string `json:"against"`
}

// SkippedRow is a malformed input row that was dropped.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// LookupError is a zip code the lookup function could not place.
type LookupError struct {
	Zip   string `json:"zip"`
	Error string `json:"error"`
}

// PersistenceError is a write that failed. Region-level failures are
// recorded and skipped; a failure while writing mappings aborts the run.
type PersistenceError struct {
	Stage string `json:"stage"`
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// Summary is the count-only view of an import report.
type Summary struct {
	RowsRead          int `json:"rows_read"`
	RowsSkipped       int `json:"rows_skipped"`
	ZipConflicts      int `json:"zip_conflicts"`
	NameConflicts     int `json:"name_conflicts"`
	NewZipCodes       int `json:"new_zip_codes"`
	LookupErrors      int `json:"lookup_errors"`
	PersistenceErrors int `json:"persistence_errors"`
	RegionsCreated    int `json:"regions_created"`
	RegionsRenamed    int `json:"regions_renamed"`
	MappingsWritten   int `json:"mappings_written"`
	MappingsUnchanged int `json:"mappings_unchanged"`
}

// ImportIssues accumulates everything worth reviewing after an import run.
// It is the record of the run; log output is only a side channel.
type ImportIssues struct {
	Source     string    `json:"source"`
	SourceRef  string    `json:"source_ref,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	ZipConflicts      []ZipConflict      `json:"zip_conflicts"`
	NameConflicts     []NameConflict     `json:"name_conflicts"`
	NewZipCodes       []string           `json:"new_zip_codes"`
	SkippedRows       []SkippedRow       `json:"skipped_rows"`
	LookupErrors      []LookupError      `json:"lookup_errors"`
	PersistenceErrors []PersistenceError `json:"persistence_errors"`

	// LookupErrorCount keeps counting after LookupErrors stops itemizing.
	LookupErrorCount  int `json:"lookup_error_count"`
	RowsRead          int `json:"rows_read"`
	RegionsCreated    int `json:"regions_created"`
	RegionsRenamed    int `json:"regions_renamed"`
	MappingsWritten   int `json:"mappings_written"`
	MappingsUnchanged int `json:"mappings_unchanged"`
}

// NewImportIssues starts an empty report for a source.
func NewImportIssues(source, ref string) *ImportIssues {
	return &ImportIssues{
		Source:            source,
		SourceRef:         ref,
		StartedAt:         time.Now().UTC(),
		ZipConflicts:      []ZipConflict{},
		NameConflicts:     []NameConflict{},
		NewZipCodes:       []string{},
		SkippedRows:       []SkippedRow{},
		LookupErrors:      []LookupError{},
		PersistenceErrors: []PersistenceError{},
	}
}

func (i *ImportIssues) skip(line int, reason string) {
	i.SkippedRows = append(i.SkippedRows, SkippedRow{Line: line, Reason: reason})
}

func (i *ImportIssues) persistenceError(stage, ref string, err error) {
	i.PersistenceErrors = append(i.PersistenceErrors, PersistenceError{Stage: stage, Ref: ref, Error: err.Error()})
}

// Summary returns the counts of the report.
func (i *ImportIssues) Summary() Summary {
	return Summary{
		RowsRead:          i.RowsRead,
		RowsSkipped:       len(i.SkippedRows),
		ZipConflicts:      len(i.ZipConflicts),
		NameConflicts:     len(i.NameConflicts),
		NewZipCodes:       len(i.NewZipCodes),
		LookupErrors:      i.LookupErrorCount,
		PersistenceErrors: len(i.PersistenceErrors),
		RegionsCreated:    i.RegionsCreated,
		RegionsRenamed:    i.RegionsRenamed,
		MappingsWritten:   i.MappingsWritten,
		MappingsUnchanged: i.MappingsUnchanged,
	}
}

// HasWarnings reports whether anything in the run needs human review.
func (i *ImportIssues) HasWarnings() bool {
	s := i.Summary()
	return s.RowsSkipped+s.ZipConflicts+s.NameConflicts+s.LookupErrors+s.PersistenceErrors > 0
}
