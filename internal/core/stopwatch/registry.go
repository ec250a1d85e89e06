package stopwatch

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"neuronwatch/internal/core/model"
	"neuronwatch/internal/logfields"
)

// Timer is a snapshot of one stopwatch.
type Timer struct {
	ID        int
	Elapsed   time.Duration
	Running   bool
	StartTime time.Time
	Status    string
}

// State reports whether the timer is counting.
func (timer Timer) State() State {
	if timer.Running {
		return StateRunning
	}
	return StateIdle
}

// Persister stores registry state after every mutation.
type Persister interface {
	SaveTimers(timers []Timer) error
	SaveHistory(records []Record) error
	ClearHistory() error
}

// Options contains the collaborators of a Registry.
type Options struct {
	Clock clockwork.Clock
	// Scheduler drives the periodic tick. A nil scheduler disables ticking;
	// elapsed time is then only sampled on stop.
	Scheduler Scheduler
	Persister Persister
	Logger    *slog.Logger
}

type entry struct {
	timer Timer
	tick  Handle
}

// Registry owns every timer and the history log. All methods are safe for
// concurrent use; ticks arrive on scheduler goroutines.
type Registry struct {
	mu        sync.Mutex
	config    model.RegistryConfig
	clock     clockwork.Clock
	scheduler Scheduler
	persister Persister
	logger    *slog.Logger
	timers    []*entry
	history   []Record
	events    []chan Event
	closed    bool
}

// New creates an empty Registry.
func New(config model.RegistryConfig, options Options) *Registry {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.Persister == nil {
		options.Persister = nopPersister{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Registry{
		config:    config.Normalized(),
		clock:     options.Clock,
		scheduler: options.Scheduler,
		persister: options.Persister,
		logger:    options.Logger,
	}
}

// Subscribe registers a new observer channel.
func (registry *Registry) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	registry.mu.Lock()
	if registry.closed {
		close(ch)
	} else {
		registry.events = append(registry.events, ch)
	}
	registry.mu.Unlock()
	return ch
}

// UpdateConfig replaces runtime settings. A new tick interval applies to
// timers started afterwards.
func (registry *Registry) UpdateConfig(config model.RegistryConfig) {
	registry.mu.Lock()
	registry.config = config.Normalized()
	registry.mu.Unlock()
}

// Config returns the active settings.
func (registry *Registry) Config() model.RegistryConfig {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.config
}

// Add creates the next timer in the Idle state and returns its ID.
func (registry *Registry) Add() (int, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if len(registry.timers) >= registry.config.MaxTimers {
		return 0, fmt.Errorf("%w: limit is %d", ErrCapacityExceeded, registry.config.MaxTimers)
	}

	id := len(registry.timers) + 1
	registry.timers = append(registry.timers, &entry{timer: Timer{ID: id}})
	registry.persistTimersLocked()
	registry.emitLocked(Event{
		Type:    EventAdded,
		TimerID: id,
		State:   StateIdle,
		At:      registry.clock.Now(),
	})
	return id, nil
}

// Start begins or resumes counting. Starting a running timer is a no-op.
func (registry *Registry) Start(id int) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	item, err := registry.lookupLocked(id)
	if err != nil {
		return err
	}
	if item.timer.Running {
		return nil
	}

	registry.startLocked(item)
	registry.persistTimersLocked()
	registry.emitLocked(Event{
		Type:    EventStarted,
		TimerID: id,
		State:   StateRunning,
		Elapsed: item.timer.Elapsed,
		At:      registry.clock.Now(),
	})
	return nil
}

// Stop freezes a running timer and appends a history record. Stopping an
// idle timer is a no-op.
func (registry *Registry) Stop(id int) error {
	registry.mu.Lock()
	item, err := registry.lookupLocked(id)
	if err != nil {
		registry.mu.Unlock()
		return err
	}
	if !item.timer.Running {
		registry.mu.Unlock()
		return nil
	}

	handle := registry.stopLocked(item, true)
	registry.persistTimersLocked()
	registry.persistHistoryLocked()
	registry.mu.Unlock()

	cancelHandle(handle)
	return nil
}

// Reset stops the timer if needed and zeroes its elapsed time. The implicit
// stop records history only when ResetRecordsHistory is set.
func (registry *Registry) Reset(id int) error {
	registry.mu.Lock()
	item, err := registry.lookupLocked(id)
	if err != nil {
		registry.mu.Unlock()
		return err
	}

	var handle Handle
	recorded := false
	if item.timer.Running {
		recorded = registry.config.ResetRecordsHistory
		handle = registry.stopLocked(item, recorded)
	}
	item.timer.Elapsed = 0
	item.timer.StartTime = time.Time{}

	registry.persistTimersLocked()
	if recorded {
		registry.persistHistoryLocked()
	}
	registry.emitLocked(Event{
		Type:    EventReset,
		TimerID: id,
		State:   StateIdle,
		At:      registry.clock.Now(),
	})
	registry.mu.Unlock()

	cancelHandle(handle)
	return nil
}

// SetStatus replaces the free-text label of a timer.
func (registry *Registry) SetStatus(id int, status string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	item, err := registry.lookupLocked(id)
	if err != nil {
		return err
	}
	if item.timer.Status == status {
		return nil
	}

	item.timer.Status = status
	registry.persistTimersLocked()
	registry.emitLocked(Event{
		Type:    EventStatus,
		TimerID: id,
		State:   item.timer.State(),
		Message: status,
		At:      registry.clock.Now(),
	})
	return nil
}

// ClearHistory drops every history record. Timers are untouched.
func (registry *Registry) ClearHistory() error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.history = nil
	err := registry.persister.ClearHistory()
	if err != nil {
		registry.logger.Warn("clear history failed", logfields.Error(err))
	}
	registry.emitLocked(Event{
		Type: EventHistoryCleared,
		At:   registry.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Restore rebuilds the registry from persisted state. Timers are assigned IDs
// by position and capped at the configured MaxTimers. Running timers resume
// from their saved elapsed time, so the time the application was closed is not
// counted.
func (registry *Registry) Restore(timers []Timer, history []Record) {
	registry.mu.Lock()

	var handles []Handle
	for _, item := range registry.timers {
		if item.tick != nil {
			handles = append(handles, item.tick)
		}
	}
	registry.timers = nil

	for _, saved := range timers {
		if len(registry.timers) >= registry.config.MaxTimers {
			registry.logger.Warn("dropping persisted timers beyond limit",
				logfields.Count(len(timers)-registry.config.MaxTimers))
			break
		}
		item := &entry{timer: Timer{
			ID:      len(registry.timers) + 1,
			Elapsed: max(saved.Elapsed, 0),
			Status:  saved.Status,
		}}
		registry.timers = append(registry.timers, item)
		if saved.Running {
			registry.startLocked(item)
		}
		registry.emitLocked(Event{
			Type:    EventAdded,
			TimerID: item.timer.ID,
			State:   item.timer.State(),
			Elapsed: item.timer.Elapsed,
			At:      registry.clock.Now(),
		})
	}
	registry.history = append([]Record(nil), history...)
	registry.persistTimersLocked()

	registry.logger.Info("registry restored",
		logfields.Count(len(registry.timers)),
		slog.Int("history", len(registry.history)))
	registry.mu.Unlock()

	for _, handle := range handles {
		handle.Cancel()
	}
}

// Timers returns a snapshot of every timer ordered by ID.
func (registry *Registry) Timers() []Timer {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.snapshotLocked()
}

// Timer returns a snapshot of a single timer.
func (registry *Registry) Timer(id int) (Timer, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	item, err := registry.lookupLocked(id)
	if err != nil {
		return Timer{}, err
	}
	return item.timer, nil
}

// History returns the history log in chronological order.
func (registry *Registry) History() []Record {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return append([]Record(nil), registry.history...)
}

// Close cancels every tick and closes observers. Persisted state keeps the
// running flags so a later Restore resumes the timers.
func (registry *Registry) Close() {
	registry.mu.Lock()
	if registry.closed {
		registry.mu.Unlock()
		return
	}
	registry.closed = true
	var handles []Handle
	for _, item := range registry.timers {
		if item.tick != nil {
			handles = append(handles, item.tick)
			item.tick = nil
		}
	}
	events := registry.events
	registry.events = nil
	registry.mu.Unlock()

	for _, handle := range handles {
		handle.Cancel()
	}
	for _, ch := range events {
		close(ch)
	}
}

func (registry *Registry) tick(id int) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.closed {
		return
	}

	item, err := registry.lookupLocked(id)
	if err != nil || !item.timer.Running {
		return
	}

	now := registry.clock.Now()
	registry.sampleLocked(item, now)
	registry.emitLocked(Event{
		Type:    EventTick,
		TimerID: id,
		State:   StateRunning,
		Elapsed: item.timer.Elapsed,
		At:      now,
	})
	registry.persistTimersLocked()
}

func (registry *Registry) startLocked(item *entry) {
	item.timer.Running = true
	item.timer.StartTime = registry.clock.Now().Add(-item.timer.Elapsed)

	if registry.scheduler == nil || item.tick != nil || registry.closed {
		return
	}
	id := item.timer.ID
	handle, err := registry.scheduler.Every(registry.config.TickInterval, func() {
		registry.tick(id)
	})
	if err != nil {
		registry.logger.Warn("schedule tick failed", logfields.TimerID(id), logfields.Error(err))
		registry.emitLocked(Event{
			Type:    EventWarning,
			TimerID: id,
			State:   StateRunning,
			Message: err.Error(),
			At:      registry.clock.Now(),
		})
		return
	}
	item.tick = handle
}

// stopLocked transitions item to Idle and returns the tick handle that the
// caller must cancel after releasing the lock.
func (registry *Registry) stopLocked(item *entry, record bool) Handle {
	now := registry.clock.Now()
	registry.sampleLocked(item, now)
	item.timer.Running = false
	handle := item.tick
	item.tick = nil
	registry.logger.Debug("timer stopped",
		logfields.TimerID(item.timer.ID),
		logfields.Status(item.timer.Status),
		logfields.ElapsedMS(item.timer.Elapsed.Milliseconds()))

	registry.emitLocked(Event{
		Type:    EventStopped,
		TimerID: item.timer.ID,
		State:   StateIdle,
		Elapsed: item.timer.Elapsed,
		At:      now,
	})

	if record {
		registry.history = append(registry.history, Record{
			ID:        item.timer.ID,
			Status:    item.timer.Status,
			Elapsed:   item.timer.Elapsed,
			Timestamp: now.Format(registry.config.TimestampLayout),
		})
		registry.emitLocked(Event{
			Type:    EventRecorded,
			TimerID: item.timer.ID,
			State:   StateIdle,
			Elapsed: item.timer.Elapsed,
			Message: item.timer.Status,
			At:      now,
		})
	}
	return handle
}

// sampleLocked re-reads the wall clock. Elapsed never decreases.
func (registry *Registry) sampleLocked(item *entry, now time.Time) {
	elapsed := now.Sub(item.timer.StartTime)
	if elapsed > item.timer.Elapsed {
		item.timer.Elapsed = elapsed
	}
}

func (registry *Registry) lookupLocked(id int) (*entry, error) {
	if id < 1 || id > len(registry.timers) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTimer, id)
	}
	return registry.timers[id-1], nil
}

func (registry *Registry) snapshotLocked() []Timer {
	timers := make([]Timer, 0, len(registry.timers))
	for _, item := range registry.timers {
		timers = append(timers, item.timer)
	}
	return timers
}

func (registry *Registry) persistTimersLocked() {
	if err := registry.persister.SaveTimers(registry.snapshotLocked()); err != nil {
		registry.warnLocked("save timers failed", err)
	}
}

func (registry *Registry) persistHistoryLocked() {
	if err := registry.persister.SaveHistory(append([]Record(nil), registry.history...)); err != nil {
		registry.warnLocked("save history failed", err)
	}
}

func (registry *Registry) warnLocked(message string, err error) {
	registry.logger.Warn(message, logfields.Error(err))
	registry.emitLocked(Event{
		Type:    EventWarning,
		Message: fmt.Sprintf("%s: %v", message, err),
		At:      registry.clock.Now(),
	})
}

func (registry *Registry) emitLocked(event Event) {
	for _, ch := range registry.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func cancelHandle(handle Handle) {
	if handle != nil {
		handle.Cancel()
	}
}

type nopPersister struct{}

func (nopPersister) SaveTimers([]Timer) error { return nil }
func (nopPersister) SaveHistory([]Record) error { return nil }
func (nopPersister) ClearHistory() error { return nil }
