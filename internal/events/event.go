package events

import "time"

// Event is the envelope that flows through the event bus.
type Event struct {
	Type      EventType
	GameID    string
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// EventGameFinalized fires once per game, on its first transition
	// into the FINAL state. Payload is GameFinalized.
	EventGameFinalized EventType = "game_finalized"

	// EventCycleCompleted fires after every reconciliation cycle,
	// successful or not. Payload is CycleCompleted.
	EventCycleCompleted EventType = "cycle_completed"
)
