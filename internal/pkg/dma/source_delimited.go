package dma

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
)

// DelimitedSource reads "zip, region code, region name" rows from tab or
// comma separated text with a header line. Fields past the third are folded
// back into the name with a space.
type DelimitedSource struct {
	ref string
	r   io.Reader
}

func NewDelimitedSource(ref string, r io.Reader) *DelimitedSource {
	return &DelimitedSource{ref: ref, r: r}
}

// OpenDelimitedFile loads a delimited file into memory.
func OpenDelimitedFile(path string) (*DelimitedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewDelimitedSource(path, bytes.NewReader(data)), nil
}

func (s *DelimitedSource) Name() string { return SourceCSV }
func (s *DelimitedSource) Ref() string  { return s.ref }

func (s *DelimitedSource) Rows(ctx context.Context, issues *ImportIssues) ([]Row, error) {
	data, err := io.ReadAll(s.r)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows []Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			issues.RowsRead++
			issues.skip(perr.StartLine, perr.Err.Error())
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read source: %w", err)
		}

		line, _ := cr.FieldPos(0)
		issues.RowsRead++
		row, reason := parseRecord(record)
		if reason != "" {
			issues.skip(line, reason)
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(record []string) (Row, string) {
	if len(record) < 3 {
		return Row{}, fmt.Sprintf("expected at least 3 fields, got %d", len(record))
	}
	zip, err := zipcode.Parse(record[0])
	if err != nil {
		return Row{}, fmt.Sprintf("invalid zip code %q", record[0])
	}
	code, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil || code <= 0 {
		return Row{}, fmt.Sprintf("invalid region code %q", record[1])
	}

	parts := make([]string, 0, len(record)-2)
	for _, f := range record[2:] {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	name := strings.Join(parts, " ")
	if name == "" {
		return Row{}, "empty region name"
	}
	return Row{Zip: zip, RegionCode: code, RegionName: name}, ""
}

// sniffDelimiter picks tab when the header line contains one, comma otherwise.
func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.IndexByte(header, '\t') >= 0 {
		return '\t'
	}
	return ','
}
