package scenes

import (
	"os"
	"sort"
)

// Continuations computes the scene numbers that belong to the clip starting
// at base. The window runs from base+1 to nextBase-1 when the institution
// has a following clip, otherwise to the highest scene on disk, and only
// scenes actually present in the inventory are returned, in ascending
// order. An empty inventory yields no continuations. A duplicate or
// adjacent next base makes the window empty, which is a valid result, not
// an error.
func Continuations(inv Inventory, base int, nextBase int, hasNext bool) []int {
	max, ok := inv.Max()
	if !ok {
		return nil
	}
	start := base + 1
	end := max
	if hasNext {
		end = nextBase - 1
	}
	return inv.between(start, end)
}

// ChooseImage selects the representative screenshot for a clip: the base
// scene's screenshot when present, else the first continuation's
// screenshot, else "". A missing image is recoverable; callers record an
// empty output for the clip and keep going.
func ChooseImage(scenesDir string, base int, continuations []int, naming Naming) string {
	path := naming.ScreenshotPath(scenesDir, base)
	if fileExists(path) {
		return path
	}
	if len(continuations) > 0 {
		path = naming.ScreenshotPath(scenesDir, continuations[0])
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// Resolution is the resolver output for one coder row.
type Resolution struct {
	Base          int
	Continuations []int
	Range         string
	ImagePath     string
}

// Resolve runs continuation and image selection across an institution's
// clip bases. Bases are processed in ascending order; each base's window
// closes at the next distinct base, and the final base extends to the top
// of the inventory. Ranges therefore never overlap and never contain
// invented scene numbers.
func Resolve(scenesDir string, inv Inventory, bases []int, naming Naming) []Resolution {
	ordered := make([]int, len(bases))
	copy(ordered, bases)
	sort.Ints(ordered)

	out := make([]Resolution, 0, len(ordered))
	for i, base := range ordered {
		next, hasNext := 0, false
		if i+1 < len(ordered) {
			next, hasNext = ordered[i+1], true
		}
		conts := Continuations(inv, base, next, hasNext)
		out = append(out, Resolution{
			Base:          base,
			Continuations: conts,
			Range:         CompressInts(conts),
			ImagePath:     ChooseImage(scenesDir, base, conts, naming),
		})
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
