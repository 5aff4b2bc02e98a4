// Package ipeds joins coded institutions against the IPEDS institutional
// characteristics file and draws stratified samples for reliability
// checks.
package ipeds

import (
	"encoding/csv"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"scenecode/internal/services"
)

// UnknownStratum marks coded domains with no IPEDS row.
const UnknownStratum = "UNKNOWN"

// webAddrAliases are the accepted spellings of the website column, checked
// in order. HD files from different years rename columns freely.
var webAddrAliases = []string{"webaddr", "web address", "website", "web url", "url"}

// nameAliases locate the optional institution name column.
var nameAliases = []string{"instnm", "institution name", "name"}

// Institution is one IPEDS row reduced to what sampling needs.
type Institution struct {
	Domain  string
	Name    string
	Stratum string
}

// Directory indexes IPEDS institutions by normalized domain.
type Directory struct {
	byDomain map[string]Institution
	// StrataColumns are the preferred columns actually present in the
	// file, in preference order. The stratum key joins their values.
	StrataColumns []string
}

// LoadDirectory reads an IPEDS HD CSV and builds the domain index. The
// preferred strata columns that exist in the header define the stratum
// key; blank cells read as NA. The first row wins when two rows normalize
// to the same domain.
func LoadDirectory(path string, preferred []string) (*Directory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrMissingArtifact, "ipeds", "load directory", path, err)
	}
	defer file.Close()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(file, decoder))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "ipeds", "load directory", "parse "+path, err)
	}
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrMalformedInput, "ipeds", "load directory", "file is empty: "+path, nil)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.Join(strings.Fields(h), " "))
	}

	webCol := -1
	for _, alias := range webAddrAliases {
		for i, h := range header {
			if h == alias {
				webCol = i
				break
			}
		}
		if webCol >= 0 {
			break
		}
	}
	if webCol < 0 {
		detail := "no website column (tried " + strings.Join(webAddrAliases, ", ") + ")"
		return nil, services.Wrap(services.ErrMalformedInput, "ipeds", "load directory", detail, nil)
	}

	nameCol := -1
	for _, alias := range nameAliases {
		for i, h := range header {
			if h == alias {
				nameCol = i
				break
			}
		}
		if nameCol >= 0 {
			break
		}
	}

	var strataCols []int
	var strataNames []string
	for _, want := range preferred {
		normalized := strings.ToLower(strings.TrimSpace(want))
		for i, h := range header {
			if h == normalized {
				strataCols = append(strataCols, i)
				strataNames = append(strataNames, strings.ToUpper(normalized))
				break
			}
		}
	}

	dir := &Directory{
		byDomain:      make(map[string]Institution, len(records)-1),
		StrataColumns: strataNames,
	}
	for _, row := range records[1:] {
		domain := NormalizeDomain(cell(row, webCol))
		if domain == "" {
			continue
		}
		if _, ok := dir.byDomain[domain]; ok {
			continue
		}
		parts := make([]string, len(strataCols))
		for i, col := range strataCols {
			value := cell(row, col)
			if value == "" {
				value = "NA"
			}
			parts[i] = value
		}
		dir.byDomain[domain] = Institution{
			Domain:  domain,
			Name:    cell(row, nameCol),
			Stratum: strings.Join(parts, "|"),
		}
	}
	return dir, nil
}

// Len returns the number of indexed institutions.
func (d *Directory) Len() int {
	return len(d.byDomain)
}

// Lookup returns the IPEDS row for a coded domain.
func (d *Directory) Lookup(domain string) (Institution, bool) {
	inst, ok := d.byDomain[NormalizeDomain(domain)]
	return inst, ok
}

// StratumFor returns the stratum key for a coded domain, UNKNOWN when the
// directory has no matching row.
func (d *Directory) StratumFor(domain string) string {
	if inst, ok := d.Lookup(domain); ok {
		return inst.Stratum
	}
	return UnknownStratum
}

// NormalizeDomain reduces a website cell to a bare lowercase domain:
// scheme and path stripped, leading www. removed.
func NormalizeDomain(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if i := strings.Index(value, "://"); i >= 0 {
		value = value[i+3:]
	}
	if i := strings.IndexAny(value, "/?#"); i >= 0 {
		value = value[:i]
	}
	value = strings.TrimPrefix(value, "www.")
	return strings.TrimSuffix(value, ".")
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
