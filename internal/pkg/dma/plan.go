package dma

import (
	"fmt"
	"sort"
)

// Row is one (zip, region code, region name) triple produced by a source.
// Line is the 1-based source line or sequence number used in reports.
type Row struct {
	Line        int
	Zip         string
	RegionCode  int
	RegionName  string
	Placeholder bool
}

// PlaceholderName is the region name used when only a code is known.
func PlaceholderName(code int) string {
	return fmt.Sprintf("DMA %d", code)
}

// Plan is the resolved outcome of a whole input before anything is written:
// the final region code per zip and the final name per region code.
type Plan struct {
	Assignments map[string]int
	Names       map[int]string
	// NameLines holds the source line that supplied each final name.
	NameLines map[int]int
	// Placeholder marks codes that only ever arrived with a synthesized name.
	Placeholder   map[int]bool
	ZipConflicts  []ZipConflict
	NameConflicts []NameConflict
}

// Codes returns every region code in the plan in ascending order.
func (p *Plan) Codes() []int {
	codes := make([]int, 0, len(p.Names))
	for code := range p.Names {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// Zips returns every assigned zip code in ascending order.
func (p *Plan) Zips() []string {
	zips := make([]string, 0, len(p.Assignments))
	for zip := range p.Assignments {
		zips = append(zips, zip)
	}
	sort.Strings(zips)
	return zips
}

// BuildPlan resolves rows in input order. For a zip seen more than once the
// latest row wins; every zip claimed by more than one distinct region code is
// reported. For a region code the latest name wins and each name change
// inside the input is reported.
func BuildPlan(rows []Row) *Plan {
	p := &Plan{
		Assignments: make(map[string]int),
		Names:       make(map[int]string),
		NameLines:   make(map[int]int),
		Placeholder: make(map[int]bool),
	}

	occurrences := make(map[string][]ZipOccurrence)
	var zipOrder []string

	for _, row := range rows {
		if _, seen := occurrences[row.Zip]; !seen {
			zipOrder = append(zipOrder, row.Zip)
		}
		occurrences[row.Zip] = append(occurrences[row.Zip], ZipOccurrence{
			Line:       row.Line,
			RegionCode: row.RegionCode,
			RegionName: row.RegionName,
		})
		p.Assignments[row.Zip] = row.RegionCode

		prev, seen := p.Names[row.RegionCode]
		switch {
		case !seen:
			p.Placeholder[row.RegionCode] = row.Placeholder
		case row.Placeholder:
			// A synthesized name never replaces one already seen.
			continue
		case p.Placeholder[row.RegionCode]:
			p.Placeholder[row.RegionCode] = false
		case prev != row.RegionName:
			p.NameConflicts = append(p.NameConflicts, NameConflict{
				Code:    row.RegionCode,
				OldName: prev,
				NewName: row.RegionName,
				Line:    row.Line,
				Against: ConflictInFile,
			})
		}
		p.Names[row.RegionCode] = row.RegionName
		p.NameLines[row.RegionCode] = row.Line
	}

	sort.Strings(zipOrder)
	for _, zip := range zipOrder {
		occ := occurrences[zip]
		if distinctCodes(occ) < 2 {
			continue
		}
		p.ZipConflicts = append(p.ZipConflicts, ZipConflict{
			Zip:         zip,
			Occurrences: occ,
			WinningCode: p.Assignments[zip],
		})
	}
	return p
}

func distinctCodes(occ []ZipOccurrence) int {
	codes := make(map[int]struct{}, len(occ))
	for _, o := range occ {
		codes[o.RegionCode] = struct{}{}
	}
	return len(codes)
}
