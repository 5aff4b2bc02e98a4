package sheet

import (
	"fmt"
	"sort"
	"strings"

	"scenecode/internal/services"
)

// Logical column names. Spreadsheets from coders arrive with inconsistent
// headers, so every logical column carries a list of accepted aliases and
// rows are addressed by logical name after detection.
const (
	FieldDomain      = "domain"
	FieldClip        = "clip"
	FieldLength      = "length"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldRevision    = "revision"
	FieldVideoURL    = "video_url"
	FieldPrimary     = "primary"
)

// defaultAliases maps each logical column to the header spellings observed
// across coder and scan spreadsheets. Matching is exact after header
// normalization; config may replace a list per field.
var defaultAliases = map[string][]string{
	FieldDomain:      {"domain", "institution", "site", "url", "domain/institution"},
	FieldClip:        {"#", "clip number", "clip_number", "clip", "number"},
	FieldLength:      {"length", "timecode", "tc", "duration"},
	FieldDescription: {"description", "desc", "scene description"},
	FieldCategory:    {"category", "code", "codes", "code_tags"},
	FieldSubcategory: {"sub category", "subcategory", "sub_category"},
	FieldRevision:    {"description revision", "description_revision", "revision"},
	FieldVideoURL:    {"video source", "video url", "video_url", "source"},
	FieldPrimary:     {"is primary site", "primary", "is_primary", "primary site"},
}

// Schema holds the alias lists used to locate logical columns in a sheet.
type Schema struct {
	aliases map[string][]string
}

// NewSchema returns a schema built from the default alias lists with any
// per-field overrides applied. An override replaces the default list for
// that field entirely.
func NewSchema(overrides map[string][]string) *Schema {
	aliases := make(map[string][]string, len(defaultAliases))
	for field, list := range defaultAliases {
		aliases[field] = list
	}
	for field, list := range overrides {
		cleaned := make([]string, 0, len(list))
		for _, alias := range list {
			if alias = normalizeHeader(alias); alias != "" {
				cleaned = append(cleaned, alias)
			}
		}
		if len(cleaned) > 0 {
			aliases[field] = cleaned
		}
	}
	return &Schema{aliases: aliases}
}

// Mapping is the result of column detection: logical field to column index
// in the detected sheet.
type Mapping struct {
	columns map[string]int
	headers []string
}

// Detect locates every logical column it can in headers and verifies the
// required fields were all found. The returned error names every missing
// field together with the headers that were present, so a coder can fix
// the sheet in one pass.
func (s *Schema) Detect(headers []string, required ...string) (*Mapping, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}
	m := &Mapping{columns: make(map[string]int), headers: headers}
	for field, aliases := range s.aliases {
		if idx, ok := findColumn(normalized, aliases); ok {
			m.columns[field] = idx
		}
	}
	var missing []string
	for _, field := range required {
		if _, ok := m.columns[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		detail := fmt.Sprintf("no column found for %s (sheet headers: %s)",
			strings.Join(missing, ", "), strings.Join(headers, ", "))
		return nil, services.Wrap(services.ErrMalformedInput, "sheet", "detect columns", detail, nil)
	}
	return m, nil
}

// Has reports whether the mapping located the given logical field.
func (m *Mapping) Has(field string) bool {
	_, ok := m.columns[field]
	return ok
}

// Value returns the cell for the logical field in row, or "" when the field
// was not detected or the row is too short. Cells are returned trimmed.
func (m *Mapping) Value(row []string, field string) string {
	idx, ok := m.columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func findColumn(normalized []string, aliases []string) (int, bool) {
	for _, alias := range aliases {
		for i, header := range normalized {
			if header == alias {
				return i, true
			}
		}
	}
	return 0, false
}

// normalizeHeader lowercases a header and collapses internal whitespace so
// "Clip  Number " matches the alias "clip number".
func normalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}
