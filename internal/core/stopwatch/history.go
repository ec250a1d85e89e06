package stopwatch

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Record is an immutable history entry created when a running timer stops.
type Record struct {
	ID        int
	Status    string
	Elapsed   time.Duration
	Timestamp string
}

var (
	lineIDPattern        = regexp.MustCompile(`^Neuron (\d+)`)
	lineStatusPattern    = regexp.MustCompile(`\((.*?)\)`)
	lineElapsedPattern   = regexp.MustCompile(`stopped at (.*?) on `)
	lineTimestampPattern = regexp.MustCompile(` on (.*)$`)
)

// FormatLine renders a record as a history line:
//
//	Neuron {id} ({status}) stopped at {HH:MM:SS} on {timestamp}
func FormatLine(record Record) string {
	return fmt.Sprintf("Neuron %d (%s) stopped at %s on %s",
		record.ID, record.Status, FormatElapsed(record.Elapsed), record.Timestamp)
}

// ParseLine recovers a record from a line produced by FormatLine.
//
// Each field is matched on its own: the status is the first parenthesised
// group and the timestamp follows the first " on ". A status containing
// parentheses, "stopped at" or " on " is therefore returned corrupted or
// rejected with ErrHistoryParse.
func ParseLine(line string) (Record, error) {
	idMatch := lineIDPattern.FindStringSubmatch(line)
	statusMatch := lineStatusPattern.FindStringSubmatch(line)
	elapsedMatch := lineElapsedPattern.FindStringSubmatch(line)
	timestampMatch := lineTimestampPattern.FindStringSubmatch(line)
	if idMatch == nil || statusMatch == nil || elapsedMatch == nil || timestampMatch == nil {
		return Record{}, fmt.Errorf("%w: %q", ErrHistoryParse, line)
	}

	id, err := strconv.Atoi(idMatch[1])
	if err != nil || id <= 0 {
		return Record{}, fmt.Errorf("%w: id in %q", ErrHistoryParse, line)
	}

	elapsed, err := ParseElapsed(elapsedMatch[1])
	if err != nil {
		return Record{}, err
	}

	return Record{
		ID:        id,
		Status:    statusMatch[1],
		Elapsed:   elapsed,
		Timestamp: timestampMatch[1],
	}, nil
}
