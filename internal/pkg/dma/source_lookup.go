package dma

import (
	"context"
	"errors"
	"fmt"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
	"github.com/gofiber/fiber/v2/log"
)

// ErrNoRegion is returned by a LookupFunc that knows no region for a zip.
var ErrNoRegion = errors.New("no region for zip code")

// LookupFunc maps a canonical zip code to a region code.
type LookupFunc func(ctx context.Context, zip string) (int, error)

// ZipLister pages through the known zip codes.
type ZipLister interface {
	ListPage(ctx context.Context, afterID uint, limit int) ([]models.ZipCode, error)
}

// LookupSource derives a row for every known zip code from a lookup function.
// Region names are placeholders since the function only returns codes.
type LookupSource struct {
	zips        ZipLister
	lookup      LookupFunc
	ref         string
	errorLogCap int
	pageSize    int
}

// NewLookupSource creates a lookup driver. At most errorLogCap failed
// lookups are itemized in the report; all of them are counted.
func NewLookupSource(zips ZipLister, lookup LookupFunc, ref string, errorLogCap int) *LookupSource {
	if errorLogCap < 0 {
		errorLogCap = 0
	}
	return &LookupSource{
		zips:        zips,
		lookup:      lookup,
		ref:         ref,
		errorLogCap: errorLogCap,
		pageSize:    DefaultPageSize,
	}
}

func (s *LookupSource) Name() string { return SourceLookup }
func (s *LookupSource) Ref() string  { return s.ref }

func (s *LookupSource) Rows(ctx context.Context, issues *ImportIssues) ([]Row, error) {
	var rows []Row
	var after uint
	seq := 0
	for {
		page, err := s.zips.ListPage(ctx, after, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list zip codes: %w", err)
		}
		for _, z := range page {
			after = z.ID
			seq++
			issues.RowsRead++

			zip, err := zipcode.Parse(z.Value)
			if err != nil {
				issues.skip(seq, fmt.Sprintf("invalid stored zip code %q", z.Value))
				continue
			}
			code, err := s.lookup(ctx, zip)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if err == nil && code <= 0 {
				err = ErrNoRegion
			}
			if err != nil {
				s.recordError(issues, zip, err)
				continue
			}
			rows = append(rows, Row{
				Line:        seq,
				Zip:         zip,
				RegionCode:  code,
				RegionName:  PlaceholderName(code),
				Placeholder: true,
			})
		}
		if seq > 0 && len(page) > 0 {
			log.Infof("[DMAImport] Looked up %d zip codes (%d failed)", seq, issues.LookupErrorCount)
		}
		if len(page) < s.pageSize {
			return rows, nil
		}
	}
}

func (s *LookupSource) recordError(issues *ImportIssues, zip string, err error) {
	issues.LookupErrorCount++
	if len(issues.LookupErrors) >= s.errorLogCap {
		return
	}
	issues.LookupErrors = append(issues.LookupErrors, LookupError{Zip: zip, Error: err.Error()})
	log.Warnf("[DMAImport] Lookup failed for zip %s: %v", zip, err)
	if len(issues.LookupErrors) == s.errorLogCap {
		log.Warnf("[DMAImport] Further lookup failures are counted but not logged")
	}
}
