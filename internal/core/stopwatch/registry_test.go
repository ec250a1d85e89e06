package stopwatch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuronwatch/internal/core/model"
)

type manualHandle struct {
	task      func()
	cancelled bool
	cancels   int
}

func (handle *manualHandle) Cancel() {
	handle.cancelled = true
	handle.cancels++
}

type manualScheduler struct {
	mu      sync.Mutex
	handles []*manualHandle
}

func (scheduler *manualScheduler) Every(_ time.Duration, task func()) (Handle, error) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	handle := &manualHandle{task: task}
	scheduler.handles = append(scheduler.handles, handle)
	return handle, nil
}

func (scheduler *manualScheduler) active() []*manualHandle {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	var active []*manualHandle
	for _, handle := range scheduler.handles {
		if !handle.cancelled {
			active = append(active, handle)
		}
	}
	return active
}

func (scheduler *manualScheduler) fire() {
	for _, handle := range scheduler.active() {
		handle.task()
	}
}

type recordingPersister struct {
	timers       []Timer
	history      []Record
	timerSaves   int
	historySaves int
	clears       int
	saveErr      error
}

func (persister *recordingPersister) SaveTimers(timers []Timer) error {
	persister.timerSaves++
	if persister.saveErr != nil {
		return persister.saveErr
	}
	persister.timers = timers
	return nil
}

func (persister *recordingPersister) SaveHistory(records []Record) error {
	persister.historySaves++
	persister.history = records
	return nil
}

func (persister *recordingPersister) ClearHistory() error {
	persister.clears++
	persister.history = nil
	return nil
}

type fixture struct {
	clock     *clockwork.FakeClock
	scheduler *manualScheduler
	persister *recordingPersister
	registry  *Registry
}

func newFixture(t *testing.T, config model.RegistryConfig) *fixture {
	t.Helper()
	f := &fixture{
		clock:     clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local)),
		scheduler: &manualScheduler{},
		persister: &recordingPersister{},
	}
	f.registry = New(config, Options{
		Clock:     f.clock,
		Scheduler: f.scheduler,
		Persister: f.persister,
	})
	t.Cleanup(f.registry.Close)
	return f
}

func (f *fixture) advance(t *testing.T, d time.Duration) {
	t.Helper()
	f.clock.Advance(d)
	f.scheduler.fire()
}

func TestRegistry_AddAssignsSequentialIDs(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())

	for want := 1; want <= 3; want++ {
		id, err := f.registry.Add()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}

	timers := f.registry.Timers()
	require.Len(t, timers, 3)
	for _, timer := range timers {
		assert.Equal(t, StateIdle, timer.State())
		assert.Zero(t, timer.Elapsed)
		assert.Empty(t, timer.Status)
	}
	require.Len(t, f.persister.timers, 3)
}

func TestRegistry_AddBeyondCapacity(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	for i := 0; i < model.MaxTimersLimit; i++ {
		_, err := f.registry.Add()
		require.NoError(t, err)
	}
	before := f.registry.Timers()
	saves := f.persister.timerSaves

	id, err := f.registry.Add()
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Zero(t, id)
	assert.Equal(t, before, f.registry.Timers())
	assert.Equal(t, saves, f.persister.timerSaves)
}

func TestRegistry_AddHonoursConfiguredLimit(t *testing.T) {
	config := model.DefaultRegistryConfig()
	config.MaxTimers = 2
	f := newFixture(t, config)

	_, err := f.registry.Add()
	require.NoError(t, err)
	_, err = f.registry.Add()
	require.NoError(t, err)
	_, err = f.registry.Add()
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestRegistry_StartIsIdempotent(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	id, err := f.registry.Add()
	require.NoError(t, err)

	require.NoError(t, f.registry.Start(id))
	first, err := f.registry.Timer(id)
	require.NoError(t, err)

	f.clock.Advance(300 * time.Millisecond)
	require.NoError(t, f.registry.Start(id))
	second, err := f.registry.Timer(id)
	require.NoError(t, err)

	assert.Len(t, f.scheduler.active(), 1)
	assert.Equal(t, first.StartTime, second.StartTime)
	assert.True(t, second.Running)
}

func TestRegistry_StopSamplesClockPastLastTick(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	id, err := f.registry.Add()
	require.NoError(t, err)
	require.NoError(t, f.registry.Start(id))

	f.advance(t, time.Second)
	f.clock.Advance(400 * time.Millisecond)
	require.NoError(t, f.registry.Stop(id))

	timer, err := f.registry.Timer(id)
	require.NoError(t, err)
	assert.Equal(t, 1400*time.Millisecond, timer.Elapsed)
	require.Len(t, f.persister.history, 1)
	assert.Equal(t, 1400*time.Millisecond, f.persister.history[0].Elapsed)
	assert.Equal(t, "00:00:01", FormatElapsed(f.persister.history[0].Elapsed))
}

func TestRegistry_TickResamplesWallClock(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	id, _ := f.registry.Add()
	require.NoError(t, f.registry.Start(id))

	var previous time.Duration
	for _, step := range []time.Duration{time.Second, 2500 * time.Millisecond, 10 * time.Millisecond} {
		f.advance(t, step)
		timer, err := f.registry.Timer(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, timer.Elapsed, previous)
		assert.Equal(t, f.clock.Now().Sub(timer.StartTime), timer.Elapsed)
		previous = timer.Elapsed
	}
	assert.Equal(t, 3510*time.Millisecond, previous)
	require.NotEmpty(t, f.persister.timers)
	assert.Equal(t, previous, f.persister.timers[0].Elapsed)
}

func TestRegistry_StopFreezesAndRecordsHistory(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	id, _ := f.registry.Add()
	require.NoError(t, f.registry.SetStatus(id, "ok"))
	require.NoError(t, f.registry.Start(id))

	f.advance(t, 1200*time.Millisecond)
	require.NoError(t, f.registry.Stop(id))

	timer, err := f.registry.Timer(id)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, timer.State())
	frozen := timer.Elapsed

	f.advance(t, 5*time.Second)
	timer, _ = f.registry.Timer(id)
	assert.Equal(t, frozen, timer.Elapsed)
	assert.Empty(t, f.scheduler.active())

	history := f.registry.History()
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].ID)
	assert.Equal(t, "ok", history[0].Status)
	assert.GreaterOrEqual(t, history[0].Elapsed, time.Second)
	assert.Equal(t, "00:00:01", FormatElapsed(history[0].Elapsed))
	assert.Equal(t, "10/19/2026, 9:00:01 AM", history[0].Timestamp)
	assert.Equal(t, history, f.persister.history)
}

func TestRegistry_StopIdleIsNoop(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	id, _ := f.registry.Add()

	require.NoError(t, f.registry.Stop(id))
	require.NoError(t, f.registry.Stop(id))
	assert.Empty(t, f.registry.History())
	assert.Zero(t, f.persister.historySaves)
}

func TestRegistry_StopThenStartResumesAccumulatedTime(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	id, _ := f.registry.Add()
	require.NoError(t, f.registry.Start(id))
	f.advance(t, 3*time.Second)
	require.NoError(t, f.registry.Stop(id))

	f.clock.Advance(time.Minute)
	require.NoError(t, f.registry.Start(id))
	timer, _ := f.registry.Timer(id)
	assert.Equal(t, 3*time.Second, timer.Elapsed)

	f.advance(t, 2*time.Second)
	timer, _ = f.registry.Timer(id)
	assert.Equal(t, 5*time.Second, timer.Elapsed)
	assert.Len(t, f.scheduler.active(), 1)
}

func TestRegistry_Reset(t *testing.T) {
	t.Run("running timer does not record by default", func(t *testing.T) {
		f := newFixture(t, model.DefaultRegistryConfig())
		id, _ := f.registry.Add()
		require.NoError(t, f.registry.Start(id))
		f.advance(t, 4*time.Second)

		require.NoError(t, f.registry.Reset(id))
		timer, _ := f.registry.Timer(id)
		assert.Zero(t, timer.Elapsed)
		assert.Equal(t, StateIdle, timer.State())
		assert.Empty(t, f.registry.History())
		assert.Empty(t, f.scheduler.active())
		assert.Zero(t, f.persister.timers[0].Elapsed)
	})

	t.Run("running timer records when configured", func(t *testing.T) {
		config := model.DefaultRegistryConfig()
		config.ResetRecordsHistory = true
		f := newFixture(t, config)
		id, _ := f.registry.Add()
		require.NoError(t, f.registry.Start(id))
		f.advance(t, 4*time.Second)

		require.NoError(t, f.registry.Reset(id))
		history := f.registry.History()
		require.Len(t, history, 1)
		assert.Equal(t, 4*time.Second, history[0].Elapsed)
		timer, _ := f.registry.Timer(id)
		assert.Zero(t, timer.Elapsed)
	})

	t.Run("idle timer", func(t *testing.T) {
		config := model.DefaultRegistryConfig()
		config.ResetRecordsHistory = true
		f := newFixture(t, config)
		id, _ := f.registry.Add()
		require.NoError(t, f.registry.Start(id))
		f.advance(t, 2*time.Second)
		require.NoError(t, f.registry.Stop(id))

		require.NoError(t, f.registry.Reset(id))
		timer, _ := f.registry.Timer(id)
		assert.Zero(t, timer.Elapsed)
		assert.Equal(t, StateIdle, timer.State())
		assert.Len(t, f.registry.History(), 1)
	})
}

func TestRegistry_StatusCapturedAtStop(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	id, _ := f.registry.Add()
	require.NoError(t, f.registry.SetStatus(id, "before"))
	require.NoError(t, f.registry.Start(id))
	require.NoError(t, f.registry.SetStatus(id, "during"))
	assert.Equal(t, "during", f.persister.timers[0].Status)

	f.advance(t, time.Second)
	require.NoError(t, f.registry.Stop(id))
	require.NoError(t, f.registry.SetStatus(id, "after"))

	history := f.registry.History()
	require.Len(t, history, 1)
	assert.Equal(t, "during", history[0].Status)
}

func TestRegistry_UnknownTimer(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	_, _ = f.registry.Add()

	for _, id := range []int{0, 2, -1} {
		assert.ErrorIs(t, f.registry.Start(id), ErrUnknownTimer)
		assert.ErrorIs(t, f.registry.Stop(id), ErrUnknownTimer)
		assert.ErrorIs(t, f.registry.Reset(id), ErrUnknownTimer)
		assert.ErrorIs(t, f.registry.SetStatus(id, "x"), ErrUnknownTimer)
	}
}

func TestRegistry_RestoreResumesFromSavedElapsed(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	staleStart := f.clock.Now().Add(-time.Hour)

	f.registry.Restore([]Timer{
		{Elapsed: 5 * time.Second, Running: true, StartTime: staleStart, Status: "work"},
		{Elapsed: 2 * time.Second, Status: "idle"},
	}, []Record{{ID: 1, Status: "old", Elapsed: time.Second, Timestamp: "x"}})

	timers := f.registry.Timers()
	require.Len(t, timers, 2)
	assert.Equal(t, 1, timers[0].ID)
	assert.Equal(t, 2, timers[1].ID)
	assert.True(t, timers[0].Running)
	assert.Equal(t, f.clock.Now().Add(-5*time.Second), timers[0].StartTime)
	assert.Equal(t, "idle", timers[1].Status)
	assert.False(t, timers[1].Running)
	assert.Len(t, f.scheduler.active(), 1)
	assert.Len(t, f.registry.History(), 1)

	f.advance(t, time.Second)
	timer, _ := f.registry.Timer(1)
	assert.Equal(t, 6*time.Second, timer.Elapsed)
}

func TestRegistry_RestoreCapsTimers(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	saved := make([]Timer, model.MaxTimersLimit+2)

	f.registry.Restore(saved, nil)
	assert.Len(t, f.registry.Timers(), model.MaxTimersLimit)
}

func TestRegistry_RestoreHonoursConfiguredMaxTimers(t *testing.T) {
	config := model.DefaultRegistryConfig()
	config.MaxTimers = 2
	f := newFixture(t, config)

	f.registry.Restore([]Timer{
		{Status: "one"},
		{Status: "two", Running: true},
		{Status: "three", Running: true},
		{Status: "four"},
	}, nil)

	timers := f.registry.Timers()
	require.Len(t, timers, 2)
	assert.Equal(t, "two", timers[1].Status)
	assert.Len(t, f.scheduler.active(), 1)
	require.Len(t, f.persister.timers, 2)
}

func TestRegistry_ClearHistory(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	id, _ := f.registry.Add()
	require.NoError(t, f.registry.Start(id))
	f.advance(t, time.Second)
	require.NoError(t, f.registry.Stop(id))
	require.Len(t, f.registry.History(), 1)
	timerSaves := f.persister.timerSaves

	require.NoError(t, f.registry.ClearHistory())
	assert.Empty(t, f.registry.History())
	assert.Equal(t, 1, f.persister.clears)
	assert.Equal(t, timerSaves, f.persister.timerSaves)
	assert.Len(t, f.registry.Timers(), 1)
}

func TestRegistry_EventsAndWarnings(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	events := f.registry.Subscribe(16)

	id, err := f.registry.Add()
	require.NoError(t, err)
	event := <-events
	assert.Equal(t, EventAdded, event.Type)
	assert.Equal(t, id, event.TimerID)

	f.persister.saveErr = errors.New("disk full")
	require.NoError(t, f.registry.SetStatus(id, "x"))

	var types []EventType
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	assert.Contains(t, types, EventWarning)
	assert.Contains(t, types, EventStatus)

	timer, _ := f.registry.Timer(id)
	assert.Equal(t, "x", timer.Status)
}

func TestRegistry_CloseCancelsTicksAndClosesObservers(t *testing.T) {
	f := newFixture(t, model.DefaultRegistryConfig())
	events := f.registry.Subscribe(8)
	id, _ := f.registry.Add()
	require.NoError(t, f.registry.Start(id))
	handles := f.scheduler.active()
	require.Len(t, handles, 1)

	f.registry.Close()
	f.registry.Close()

	assert.Empty(t, f.scheduler.active())
	assert.Equal(t, 1, handles[0].cancels)
	for range events {
	}
	timer, _ := f.registry.Timer(id)
	assert.True(t, timer.Running)
}
