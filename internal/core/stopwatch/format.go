package stopwatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatElapsed renders a duration as zero padded HH:MM:SS. Hours are not
// wrapped at 24 and sub-second precision is truncated.
func FormatElapsed(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	totalSeconds := int64(elapsed / time.Second)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// ParseElapsed is the inverse of FormatElapsed.
func ParseElapsed(value string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: elapsed %q", ErrHistoryParse, value)
	}

	var fields [3]int64
	for index, part := range parts {
		parsed, err := strconv.ParseInt(part, 10, 64)
		if err != nil || parsed < 0 {
			return 0, fmt.Errorf("%w: elapsed %q", ErrHistoryParse, value)
		}
		fields[index] = parsed
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("%w: elapsed %q", ErrHistoryParse, value)
	}

	total := fields[0]*3600 + fields[1]*60 + fields[2]
	return time.Duration(total) * time.Second, nil
}
