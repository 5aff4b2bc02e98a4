package scenes

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CompressInts renders a list of scene numbers as compact range notation:
// maximal consecutive runs become "a-b", single numbers stand alone, and
// runs are comma-joined in ascending order. Input order and duplicates do
// not matter. An empty list yields "".
func CompressInts(nums []int) string {
	if len(nums) == 0 {
		return ""
	}
	unique := make([]int, 0, len(nums))
	seen := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}
	sort.Ints(unique)

	var parts []string
	start, prev := unique[0], unique[0]
	flush := func() {
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
			return
		}
		parts = append(parts, strconv.Itoa(start)+"-"+strconv.Itoa(prev))
	}
	for _, n := range unique[1:] {
		if n == prev+1 {
			prev = n
			continue
		}
		flush()
		start, prev = n, n
	}
	flush()
	return strings.Join(parts, ",")
}

// ExpandRange parses compact range notation back into the scene numbers it
// covers, ascending and deduplicated regardless of token order. "" expands
// to an empty list. Blank tokens are ignored. A descending token such as
// "9-7" covers nothing. Tokens that do not parse as numbers report an
// error naming the token.
func ExpandRange(rng string) ([]int, error) {
	if strings.TrimSpace(rng) == "" {
		return nil, nil
	}
	var out []int
	for _, token := range strings.Split(rng, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		lo, hi, found := strings.Cut(token, "-")
		if !found {
			n, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("range token %q is not a number", token)
			}
			out = append(out, n)
			continue
		}
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("range token %q has a bad start", token)
		}
		b, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("range token %q has a bad end", token)
		}
		for n := a; n <= b; n++ {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	// Hand-edited glue files may list tokens out of order or overlapping;
	// downstream concat order depends on the result being ascending.
	sort.Ints(out)
	unique := out[:1]
	for _, n := range out[1:] {
		if n != unique[len(unique)-1] {
			unique = append(unique, n)
		}
	}
	return unique, nil
}
