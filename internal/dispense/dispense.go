package dispense

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"meddispense/m/domain"
	"meddispense/m/internal/store"
)

// Actuator is the motor collaborator. SelectBox positions the divider for
// one box, ReleasePill runs one open/close cycle, Home returns the divider
// to rest. There is exactly one physical actuator, so callers must not run
// two dispenses concurrently.
type Actuator interface {
	SelectBox(boxID int64) error
	ReleasePill() error
	Home() error
}

// Stock is the slice of the schedule store the executor touches.
type Stock interface {
	Slot(boxID int64) (domain.MedicationSlot, error)
	DecrementStock(boxID, dispensed int64) (int64, error)
}

// Executor drives the actuation sequence for one dispense.
type Executor struct {
	Actuator   Actuator
	Stock      Stock
	SettleWait time.Duration
}

// Dispense releases up to requested pills from a box. It never releases more
// than the box holds, and the stock decrement always uses the count that
// physically left the box, even when the actuator fails mid-run.
func (e *Executor) Dispense(ctx context.Context, boxID, requested int64, name string) (domain.DispenseEvent, error) {
	event := domain.DispenseEvent{
		EventID:        uuid.NewString(),
		BoxID:          boxID,
		PillsRequested: requested,
		Outcome:        domain.DispenseSkipped,
	}

	slot, err := e.Stock.Slot(boxID)
	if err != nil {
		return event, fmt.Errorf("load slot %d: %w", boxID, err)
	}

	count := requested
	if slot.TotalPills < count {
		log.Printf("box %d (%s) holds %d pill(s) but %d requested, dispensing what is available",
			boxID, name, slot.TotalPills, requested)
		count = slot.TotalPills
	}
	if count <= 0 {
		event.Remaining = slot.TotalPills
		return event, nil
	}

	log.Printf("dispensing %d pill(s) from box %d (%s)", count, boxID, name)

	if err := e.Actuator.SelectBox(boxID); err != nil {
		return event, fmt.Errorf("select box %d: %w", boxID, err)
	}
	e.settle(ctx)

	var released int64
	var actErr error
	for i := int64(0); i < count; i++ {
		if err := ctx.Err(); err != nil {
			actErr = err
			break
		}
		if err := e.Actuator.ReleasePill(); err != nil {
			actErr = fmt.Errorf("release pill %d of %d: %w", i+1, count, err)
			break
		}
		released++
		e.settle(ctx)
	}

	if err := e.Actuator.Home(); err != nil {
		log.Printf("box %d: actuator home failed: %v", boxID, err)
	}

	event.PillsDispensed = released
	if released > 0 {
		remaining, err := e.Stock.DecrementStock(boxID, released)
		if err != nil {
			return event, fmt.Errorf("decrement stock for box %d: %w", boxID, err)
		}
		event.Remaining = remaining
		event.Outcome = domain.DispenseComplete
		if released < requested {
			event.Outcome = domain.DispensePartial
		}
		switch {
		case remaining == 0:
			log.Printf("box %d (%s) is empty, refill immediately", boxID, name)
		case remaining <= store.CriticalStockThreshold:
			log.Printf("box %d (%s) is running low: only %d pill(s) left", boxID, name, remaining)
		}
	}

	return event, actErr
}

func (e *Executor) settle(ctx context.Context) {
	if e.SettleWait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(e.SettleWait):
	}
}
