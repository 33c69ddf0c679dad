package domain

import "time"

// HormoneType distinguishes hormones that are dispatched immediately from
// ones that are queued and released on a slow-release cadence.
type HormoneType string

const (
	HormoneInstant     HormoneType = "instant"
	HormoneSlowRelease HormoneType = "slow_release"
)

// Hormone is a single signal travelling through the event bus: an organ
// emits one whenever something worth reacting to happens, and any number
// of other organs may subscribe to its name.
type Hormone struct {
	ID        string
	Name      string
	Payload   map[string]any
	Emitter   string
	Type      HormoneType
	Timestamp time.Time
	Depth     int
}

// NewHormone builds a Hormone ready to be passed to the bus. Depth starts
// at zero; Signal should be used instead when emitting in response to
// another hormone so depth accumulates correctly.
func NewHormone(id, name string, payload map[string]any, emitter string, kind HormoneType) *Hormone {
	return &Hormone{
		ID:        id,
		Name:      name,
		Payload:   payload,
		Emitter:   emitter,
		Type:      kind,
		Timestamp: time.Now(),
		Depth:     0,
	}
}
