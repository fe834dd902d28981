package scheduler

import (
	"context"
	"log"
	"time"

	"meddispense/m/domain"
)

// State is the loop's position in its poll cycle.
type State int

const (
	StateIdle State = iota
	StateSyncing
	StateDispatching
)

// Dispenser triggers one physical dispense. There is one actuator, so the
// loop calls it sequentially.
type Dispenser interface {
	Dispense(ctx context.Context, boxID, pills int64, name string) (domain.DispenseEvent, error)
}

// SlotSource yields the current schedule table.
type SlotSource interface {
	Slots(ctx context.Context) ([]domain.MedicationSlot, error)
}

// Reporter forwards dispense events to the tracker. Failures are absorbed;
// local stock state is already updated by then and stays authoritative.
type Reporter interface {
	ReportDispense(ctx context.Context, event domain.DispenseEvent) error
}

// DefaultTick is how often the loop samples the wall clock. Coarse on
// purpose; the minute guard does the actual rate limiting.
const DefaultTick = 10 * time.Second

// Loop matches wall-clock minutes against the schedule and dispatches due
// dispenses at most once per distinct minute.
type Loop struct {
	Source    SlotSource
	Dispenser Dispenser
	Reporter  Reporter // optional
	Tick      time.Duration
	Now       func() time.Time // test hook, defaults to time.Now

	state      State
	lastMinute int
}

// Run polls until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	tick := l.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	now := l.Now
	if now == nil {
		now = time.Now
	}
	l.lastMinute = -1

	log.Printf("scheduler active, polling every %s", tick)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		l.Poll(ctx, now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll runs one clock sample. The minute guard makes repeated calls within
// the same minute value no-ops, so a schedule entry cannot double-fire
// inside its 60-second window.
func (l *Loop) Poll(ctx context.Context, now time.Time) {
	if now.Minute() == l.lastMinute {
		return
	}
	l.lastMinute = now.Minute()
	hhmm := now.Format("15:04")

	l.state = StateSyncing
	defer func() { l.state = StateIdle }()

	slots, err := l.Source.Slots(ctx)
	if err != nil {
		log.Printf("[%s] schedule sync failed, skipping this cycle: %v", hhmm, err)
		return
	}

	l.state = StateDispatching
	for _, slot := range slots {
		if !slot.DueAt(hhmm) {
			continue
		}
		event, err := l.Dispenser.Dispense(ctx, slot.BoxID, slot.PillsPerIntake, slot.MedicationName)
		if err != nil {
			log.Printf("box %d: dispense failed: %v", slot.BoxID, err)
		}
		if l.Reporter != nil && event.PillsDispensed > 0 {
			if err := l.Reporter.ReportDispense(ctx, event); err != nil {
				log.Printf("box %d: dispense report failed: %v", slot.BoxID, err)
			}
		}
	}
}

// State exposes the loop phase for diagnostics.
func (l *Loop) State() State {
	return l.state
}
