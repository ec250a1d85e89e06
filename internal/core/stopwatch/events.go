package stopwatch

import "time"

// State represents whether a timer is counting.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// EventType defines the type of registry event.
type EventType string

const (
	EventAdded          EventType = "added"
	EventStarted        EventType = "started"
	EventTick           EventType = "tick"
	EventStopped        EventType = "stopped"
	EventReset          EventType = "reset"
	EventStatus         EventType = "status"
	EventRecorded       EventType = "recorded"
	EventHistoryCleared EventType = "history_cleared"
	EventWarning        EventType = "warning"
)

// Event represents a registry update for observers.
type Event struct {
	Type    EventType
	TimerID int
	State   State
	Elapsed time.Duration
	Message string
	At      time.Time
}
