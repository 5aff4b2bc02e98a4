package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"scenecode/internal/services"
)

// timecodeFPS is the frame rate assumed when a length is written with a
// frame component (HH:MM:SS:FF).
const timecodeFPS = 30

// ParseLength converts a coder-entered length cell to seconds. Accepted
// shapes are "SS", "MM:SS", "HH:MM:SS" (each with an optional fractional
// seconds part) and "HH:MM:SS:FF" with FF as a frame count at 30fps.
func ParseLength(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, services.Wrap(services.ErrMalformedInput, "sheet", "parse length", "empty length", nil)
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) > 4 {
		return 0, malformedLength(value, "too many components")
	}

	frames := 0.0
	if len(parts) == 4 {
		n, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil || n < 0 {
			return 0, malformedLength(value, "bad frame count")
		}
		frames = float64(n)
		parts = parts[:3]
	}

	seconds := 0.0
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || f < 0 {
			return 0, malformedLength(value, "bad component "+part)
		}
		if i < len(parts)-1 && f != float64(int(f)) {
			return 0, malformedLength(value, "fractional component "+part)
		}
		seconds = seconds*60 + f
	}
	return seconds + frames/timecodeFPS, nil
}

func malformedLength(value, reason string) error {
	detail := fmt.Sprintf("length %q: %s", value, reason)
	return services.Wrap(services.ErrMalformedInput, "sheet", "parse length", detail, nil)
}
