package domain

// DispenseOutcome classifies one actuation sequence.
type DispenseOutcome string

const (
	// DispenseComplete means every requested pill was released.
	DispenseComplete DispenseOutcome = "complete"
	// DispensePartial means the release stopped early, either because the
	// box held fewer pills than requested or the actuator failed mid-run.
	DispensePartial DispenseOutcome = "partial"
	// DispenseSkipped means the box was empty and nothing moved.
	DispenseSkipped DispenseOutcome = "skipped"
)

// DispenseEvent records one actuation. It is not persisted beyond its
// effect on slot stock and the report sent to the tracker.
type DispenseEvent struct {
	EventID        string          `json:"event_id"`
	BoxID          int64           `json:"box_id"`
	PillsRequested int64           `json:"requested"`
	PillsDispensed int64           `json:"dispensed"`
	Remaining      int64           `json:"remaining"`
	Outcome        DispenseOutcome `json:"outcome"`
}
