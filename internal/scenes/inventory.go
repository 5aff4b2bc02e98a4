package scenes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Prefix is the fixed stem every scene file starts with.
const Prefix = "scene_"

// Naming carries the configured file extensions for scene clips and
// screenshots. Extensions are stored without the leading dot.
type Naming struct {
	VideoExt string
	ImageExt string
}

// DefaultNaming returns the extensions the splitter writes by default.
func DefaultNaming() Naming {
	return Naming{VideoExt: "mp4", ImageExt: "jpg"}
}

// ClipFile returns the file name for scene n, e.g. "scene_7.mp4".
func (n Naming) ClipFile(num int) string {
	return Prefix + strconv.Itoa(num) + "." + n.VideoExt
}

// ScreenshotFile returns the screenshot name for scene n, e.g.
// "scene_7_screenshot.jpg".
func (n Naming) ScreenshotFile(num int) string {
	return Prefix + strconv.Itoa(num) + "_screenshot." + n.ImageExt
}

// FragmentFile returns the subsplit fragment name for part k of scene n,
// e.g. "scene_7_2.mp4".
func (n Naming) FragmentFile(num, part int) string {
	return Prefix + strconv.Itoa(num) + "_" + strconv.Itoa(part) + "." + n.VideoExt
}

// FragmentScreenshotFile returns the screenshot name for a subsplit fragment.
func (n Naming) FragmentScreenshotFile(num, part int) string {
	return Prefix + strconv.Itoa(num) + "_" + strconv.Itoa(part) + "_screenshot." + n.ImageExt
}

// ClipPath joins dir with the clip file name for scene n.
func (n Naming) ClipPath(dir string, num int) string {
	return filepath.Join(dir, n.ClipFile(num))
}

// ScreenshotPath joins dir with the screenshot name for scene n.
func (n Naming) ScreenshotPath(dir string, num int) string {
	return filepath.Join(dir, n.ScreenshotFile(num))
}

// FragmentPath joins dir with the fragment name for part k of scene n.
func (n Naming) FragmentPath(dir string, num, part int) string {
	return filepath.Join(dir, n.FragmentFile(num, part))
}

// FragmentScreenshotPath joins dir with a fragment's screenshot name.
func (n Naming) FragmentScreenshotPath(dir string, num, part int) string {
	return filepath.Join(dir, n.FragmentScreenshotFile(num, part))
}

// Inventory is the set of scene numbers present on disk for one
// institution. It is rebuilt from a directory listing on every use and
// never cached across operations.
type Inventory struct {
	numbers []int
	members map[int]struct{}
}

// NewInventory builds an inventory from explicit scene numbers. Duplicates
// collapse and order does not matter.
func NewInventory(nums []int) Inventory {
	inv := Inventory{members: make(map[int]struct{}, len(nums))}
	for _, n := range nums {
		if _, ok := inv.members[n]; ok {
			continue
		}
		inv.members[n] = struct{}{}
		inv.numbers = append(inv.numbers, n)
	}
	sort.Ints(inv.numbers)
	return inv
}

// ListInventory scans a scenes directory for clip files named
// "scene_<n>.<ext>". The numeric part must be the entire remainder of the
// stem, so subsplit fragments like scene_7_1.mp4 are not counted. Names
// that carry the prefix and extension but fail that parse are returned in
// skipped for the caller to log. A missing directory yields an empty
// inventory rather than an error.
func ListInventory(dir string, naming Naming) (Inventory, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewInventory(nil), nil, nil
		}
		return Inventory{}, nil, fmt.Errorf("list scenes directory: %w", err)
	}

	suffix := "." + strings.ToLower(naming.VideoExt)
	var nums []int
	var skipped []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, Prefix) || !strings.HasSuffix(lower, suffix) {
			continue
		}
		stem := lower[len(Prefix) : len(lower)-len(suffix)]
		num, err := strconv.Atoi(stem)
		if err != nil || num < 1 {
			skipped = append(skipped, name)
			continue
		}
		nums = append(nums, num)
	}
	return NewInventory(nums), skipped, nil
}

// Empty reports whether no scenes exist.
func (inv Inventory) Empty() bool {
	return len(inv.numbers) == 0
}

// Len returns the number of distinct scenes.
func (inv Inventory) Len() int {
	return len(inv.numbers)
}

// Max returns the highest scene number, if any exist.
func (inv Inventory) Max() (int, bool) {
	if len(inv.numbers) == 0 {
		return 0, false
	}
	return inv.numbers[len(inv.numbers)-1], true
}

// Contains reports whether scene n is present.
func (inv Inventory) Contains(n int) bool {
	_, ok := inv.members[n]
	return ok
}

// Numbers returns the scene numbers in ascending order.
func (inv Inventory) Numbers() []int {
	out := make([]int, len(inv.numbers))
	copy(out, inv.numbers)
	return out
}

func (inv Inventory) between(start, end int) []int {
	if end < start {
		return nil
	}
	lo := sort.SearchInts(inv.numbers, start)
	hi := sort.SearchInts(inv.numbers, end+1)
	if lo >= hi {
		return nil
	}
	out := make([]int, hi-lo)
	copy(out, inv.numbers[lo:hi])
	return out
}
