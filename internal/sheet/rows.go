package sheet

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// domainPattern extracts a bare hostname from free-form cell text such as
// "https://www.cmn.edu/about" or "cmn.edu (main campus)".
var domainPattern = regexp.MustCompile(`([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

// ParseDomain reduces a spreadsheet cell to a lowercase domain token. When
// no hostname-shaped substring is present the whole trimmed cell is
// returned lowercased, and "" means the cell was empty.
func ParseDomain(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if m := domainPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return value
}

// ClipRow is one coder-entered clip: an institution domain, the clip's
// ordinal within that institution's video, and the coder's annotations.
type ClipRow struct {
	Domain      string
	Clip        int
	Length      string
	Description string
	Category    string
	Subcategory string
	Revision    string
}

// ParseClips converts table rows into ClipRows using the detected mapping.
// Rows without a usable domain or a numeric clip number are dropped; their
// 1-based data row numbers are returned so callers can report them.
func ParseClips(table *Table, m *Mapping) ([]ClipRow, []int) {
	rows := make([]ClipRow, 0, len(table.Rows))
	var dropped []int
	for i, record := range table.Rows {
		domain := ParseDomain(m.Value(record, FieldDomain))
		clip, ok := parseClipNumber(m.Value(record, FieldClip))
		if domain == "" || !ok {
			dropped = append(dropped, i+1)
			continue
		}
		rows = append(rows, ClipRow{
			Domain:      domain,
			Clip:        clip,
			Length:      m.Value(record, FieldLength),
			Description: m.Value(record, FieldDescription),
			Category:    m.Value(record, FieldCategory),
			Subcategory: m.Value(record, FieldSubcategory),
			Revision:    m.Value(record, FieldRevision),
		})
	}
	return rows, dropped
}

// parseClipNumber coerces a cell to an integer clip ordinal. Fractional
// values truncate, matching how numeric spreadsheet cells round-trip
// through CSV exports as "7.0".
func parseClipNumber(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// InstitutionClips groups one institution's rows, sorted by clip ascending.
type InstitutionClips struct {
	Domain string
	Rows   []ClipRow
}

// GroupByDomain buckets rows per institution. Groups come back sorted by
// domain and each group's rows sorted by clip number, ties keeping sheet
// order.
func GroupByDomain(rows []ClipRow) []InstitutionClips {
	byDomain := make(map[string][]ClipRow)
	for _, row := range rows {
		byDomain[row.Domain] = append(byDomain[row.Domain], row)
	}
	domains := make([]string, 0, len(byDomain))
	for domain := range byDomain {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	groups := make([]InstitutionClips, 0, len(domains))
	for _, domain := range domains {
		group := byDomain[domain]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Clip < group[j].Clip })
		groups = append(groups, InstitutionClips{Domain: domain, Rows: group})
	}
	return groups
}

// ScanRow is one row of the acquisition scan sheet: where an institution's
// promo video lives and whether the listed site is the institution's
// primary web presence.
type ScanRow struct {
	Institution string
	VideoURL    string
	Primary     bool
}

// ParseScanRows converts table rows into ScanRows. Rows without an
// institution cell are dropped and reported by 1-based data row number;
// rows without a video URL are kept so callers can log why they skip them.
func ParseScanRows(table *Table, m *Mapping) ([]ScanRow, []int) {
	rows := make([]ScanRow, 0, len(table.Rows))
	var dropped []int
	for i, record := range table.Rows {
		institution := m.Value(record, FieldDomain)
		if institution == "" {
			dropped = append(dropped, i+1)
			continue
		}
		rows = append(rows, ScanRow{
			Institution: institution,
			VideoURL:    m.Value(record, FieldVideoURL),
			Primary:     parsePrimary(m.Value(record, FieldPrimary)),
		})
	}
	return rows, dropped
}

// parsePrimary reads the primary-site flag. Blank cells count as primary:
// scan sheets only mark the exceptions.
func parsePrimary(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "false", "f", "no", "n", "0":
		return false
	default:
		return true
	}
}
