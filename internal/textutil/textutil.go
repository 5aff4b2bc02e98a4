package textutil

import "strings"

// folderReplacer maps path separators and other filesystem-unsafe
// characters to underscores.
var folderReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SafeFolder converts a value into a directory name that is safe on every
// supported filesystem. Separators and reserved punctuation become
// underscores and runs of whitespace collapse to a single underscore.
// Dots are preserved so domain names stay readable.
func SafeFolder(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = folderReplacer.Replace(name)
	return strings.Join(strings.Fields(name), "_")
}

// Ternary is a generic conditional that returns a when cond is true and b
// otherwise.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
