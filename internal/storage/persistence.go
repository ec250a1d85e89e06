package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"neuronwatch/internal/core/stopwatch"
	"neuronwatch/internal/logfields"
)

// timerJSON is one element of the "stopwatches" list; index+1 is the timer ID.
type timerJSON struct {
	ElapsedMilliseconds int64  `json:"elapsedMilliseconds"`
	Running             bool   `json:"running"`
	StartTime           *int64 `json:"startTime"`
	Status              string `json:"status"`
}

type historyJSON struct {
	ID                  recordID `json:"id"`
	Status              string   `json:"status"`
	ElapsedMilliseconds int64    `json:"elapsedMilliseconds"`
	Timestamp           string   `json:"timestamp"`
}

// recordID decodes from a JSON number or a numeric string.
type recordID int

func (id *recordID) UnmarshalJSON(data []byte) error {
	var number int
	if err := json.Unmarshal(data, &number); err == nil {
		*id = recordID(number)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("history id %s: %w", data, err)
	}
	number, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("history id %q: %w", text, err)
	}
	*id = recordID(number)
	return nil
}

// Adapter converts registry state to and from a Store. It implements
// stopwatch.Persister.
type Adapter struct {
	store  Store
	logger *slog.Logger
}

// NewAdapter creates an Adapter over store.
func NewAdapter(store Store, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: store, logger: logger}
}

// SaveTimers overwrites the timer snapshot.
func (adapter *Adapter) SaveTimers(timers []stopwatch.Timer) error {
	encoded := make([]timerJSON, 0, len(timers))
	for _, timer := range timers {
		item := timerJSON{
			ElapsedMilliseconds: timer.Elapsed.Milliseconds(),
			Running:             timer.Running,
			Status:              timer.Status,
		}
		if !timer.StartTime.IsZero() {
			startTime := timer.StartTime.UnixMilli()
			item.StartTime = &startTime
		}
		encoded = append(encoded, item)
	}
	return adapter.saveJSON(KeyTimers, encoded)
}

// LoadTimers returns the persisted timers ordered by ID. Missing or corrupt
// data yields an empty list.
func (adapter *Adapter) LoadTimers() []stopwatch.Timer {
	var decoded []timerJSON
	if !adapter.loadJSON(KeyTimers, &decoded) {
		return nil
	}

	timers := make([]stopwatch.Timer, 0, len(decoded))
	for index, item := range decoded {
		timer := stopwatch.Timer{
			ID:      index + 1,
			Elapsed: time.Duration(max(item.ElapsedMilliseconds, 0)) * time.Millisecond,
			Running: item.Running,
			Status:  item.Status,
		}
		if item.StartTime != nil {
			timer.StartTime = time.UnixMilli(*item.StartTime)
		}
		timers = append(timers, timer)
	}
	return timers
}

// SaveHistory overwrites the history log.
func (adapter *Adapter) SaveHistory(records []stopwatch.Record) error {
	encoded := make([]historyJSON, 0, len(records))
	for _, record := range records {
		encoded = append(encoded, historyJSON{
			ID:                  recordID(record.ID),
			Status:              record.Status,
			ElapsedMilliseconds: record.Elapsed.Milliseconds(),
			Timestamp:           record.Timestamp,
		})
	}
	return adapter.saveJSON(KeyHistory, encoded)
}

// LoadHistory returns the persisted history in append order. Missing or
// corrupt data yields an empty list.
func (adapter *Adapter) LoadHistory() []stopwatch.Record {
	var decoded []historyJSON
	if !adapter.loadJSON(KeyHistory, &decoded) {
		return nil
	}

	records := make([]stopwatch.Record, 0, len(decoded))
	for _, item := range decoded {
		records = append(records, stopwatch.Record{
			ID:        int(item.ID),
			Status:    item.Status,
			Elapsed:   time.Duration(max(item.ElapsedMilliseconds, 0)) * time.Millisecond,
			Timestamp: item.Timestamp,
		})
	}
	return records
}

// ClearHistory removes the history key. Timer data is untouched.
func (adapter *Adapter) ClearHistory() error {
	if err := adapter.store.Remove(KeyHistory); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// ImportHistoryLines parses rendered history lines and appends the valid ones
// to the stored history. Malformed lines are skipped; the returned error joins
// one ErrHistoryParse per skipped line and does not mean nothing was imported.
func (adapter *Adapter) ImportHistoryLines(lines []string) (int, error) {
	records := adapter.LoadHistory()
	var problems []error
	imported := 0

	for index, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := stopwatch.ParseLine(line)
		if err != nil {
			adapter.logger.Warn("skipping history line", slog.Int("line", index+1), logfields.Error(err))
			problems = append(problems, fmt.Errorf("line %d: %w", index+1, err))
			continue
		}
		records = append(records, record)
		imported++
	}

	if imported > 0 {
		if err := adapter.SaveHistory(records); err != nil {
			return 0, err
		}
	}
	return imported, errors.Join(problems...)
}

func (adapter *Adapter) saveJSON(key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := adapter.store.Save(key, string(encoded)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func (adapter *Adapter) loadJSON(key string, target any) bool {
	raw, err := adapter.store.Load(key)
	if err != nil {
		adapter.logger.Debug("store read failed", logfields.StoreKey(key), logfields.Error(err))
		return false
	}
	if strings.TrimSpace(raw) == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		adapter.logger.Debug("ignoring stored value",
			logfields.StoreKey(key),
			logfields.Error(fmt.Errorf("%w: %w", ErrMalformedData, err)))
		return false
	}
	return true
}
