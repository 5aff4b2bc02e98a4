package glue

import (
	"strconv"
	"strings"

	"scenecode/internal/scenes"
)

// Record maps a destination scene to the continuation scenes that get
// concatenated into it. A record with no continuations is a base that
// stands alone.
type Record struct {
	Base          int
	Continuations []int
}

// Sources returns the scene numbers a merge reads, destination first.
func (r Record) Sources() []int {
	out := make([]int, 0, len(r.Continuations)+1)
	out = append(out, r.Base)
	out = append(out, r.Continuations...)
	return out
}

// Line renders the record in glue file notation: the base alone, or the
// base followed by the compressed continuation range.
func (r Record) Line() string {
	if len(r.Continuations) == 0 {
		return strconv.Itoa(r.Base)
	}
	return strconv.Itoa(r.Base) + "," + scenes.CompressInts(r.Continuations)
}

// parseFields converts one glue line, already split on commas, into a
// Record. The first field is the base; any remaining fields are range
// tokens covering the continuations.
func parseFields(fields []string) (Record, error) {
	base, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Record{}, err
	}
	continuations, err := scenes.ExpandRange(strings.Join(fields[1:], ","))
	if err != nil {
		return Record{}, err
	}
	return Record{Base: base, Continuations: continuations}, nil
}
