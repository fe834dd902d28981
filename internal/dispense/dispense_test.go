package dispense

import (
	"context"
	"errors"
	"testing"

	"meddispense/m/domain"
)

// fakeActuator records the command sequence.
type fakeActuator struct {
	selected   []int64
	releases   int
	homed      int
	failAfter  int // fail ReleasePill after this many successes, 0 for never
	selectFail bool
}

func (a *fakeActuator) SelectBox(boxID int64) error {
	if a.selectFail {
		return errors.New("serial port unavailable")
	}
	a.selected = append(a.selected, boxID)
	return nil
}

func (a *fakeActuator) ReleasePill() error {
	if a.failAfter > 0 && a.releases >= a.failAfter {
		return errors.New("motor stalled")
	}
	a.releases++
	return nil
}

func (a *fakeActuator) Home() error {
	a.homed++
	return nil
}

// fakeStock is an in-memory stand-in for the schedule store.
type fakeStock struct {
	slots      map[int64]domain.MedicationSlot
	decrements []int64
}

func (s *fakeStock) Slot(boxID int64) (domain.MedicationSlot, error) {
	slot, ok := s.slots[boxID]
	if !ok {
		return domain.MedicationSlot{}, errors.New("slot not found")
	}
	return slot, nil
}

func (s *fakeStock) DecrementStock(boxID, dispensed int64) (int64, error) {
	slot := s.slots[boxID]
	slot.TotalPills -= dispensed
	if slot.TotalPills < 0 {
		slot.TotalPills = 0
	}
	s.slots[boxID] = slot
	s.decrements = append(s.decrements, dispensed)
	return slot.TotalPills, nil
}

func newExecutor(pills int64) (*Executor, *fakeActuator, *fakeStock) {
	act := &fakeActuator{}
	stock := &fakeStock{slots: map[int64]domain.MedicationSlot{
		1: {BoxID: 1, MedicationName: "MED 1", TotalPills: pills, PillsPerIntake: 2},
	}}
	return &Executor{Actuator: act, Stock: stock}, act, stock
}

func TestDispenseComplete(t *testing.T) {
	e, act, stock := newExecutor(10)
	event, err := e.Dispense(context.Background(), 1, 2, "MED 1")
	if err != nil {
		t.Fatal(err)
	}
	if event.Outcome != domain.DispenseComplete {
		t.Fatalf("outcome = %s, want complete", event.Outcome)
	}
	if event.PillsDispensed != 2 || event.Remaining != 8 {
		t.Fatalf("event = %+v, want 2 dispensed, 8 remaining", event)
	}
	if act.releases != 2 || act.homed != 1 || len(act.selected) != 1 || act.selected[0] != 1 {
		t.Fatalf("actuator sequence wrong: %+v", act)
	}
	if len(stock.decrements) != 1 || stock.decrements[0] != 2 {
		t.Fatalf("decrements = %v, want [2]", stock.decrements)
	}
}

func TestDispenseTruncatesToStock(t *testing.T) {
	e, act, stock := newExecutor(4)
	event, err := e.Dispense(context.Background(), 1, 10, "MED 1")
	if err != nil {
		t.Fatal(err)
	}
	if event.Outcome != domain.DispensePartial {
		t.Fatalf("outcome = %s, want partial", event.Outcome)
	}
	if event.PillsDispensed != 4 || event.Remaining != 0 {
		t.Fatalf("event = %+v, want 4 dispensed, 0 remaining", event)
	}
	if act.releases != 4 {
		t.Fatalf("releases = %d, want 4", act.releases)
	}
	// The decrement reflects what physically left the box, not the request.
	if len(stock.decrements) != 1 || stock.decrements[0] != 4 {
		t.Fatalf("decrements = %v, want [4]", stock.decrements)
	}
}

func TestDispenseSkipsEmptyBox(t *testing.T) {
	e, act, stock := newExecutor(0)
	event, err := e.Dispense(context.Background(), 1, 2, "MED 1")
	if err != nil {
		t.Fatal(err)
	}
	if event.Outcome != domain.DispenseSkipped || event.PillsDispensed != 0 {
		t.Fatalf("event = %+v, want skipped", event)
	}
	if act.releases != 0 || len(act.selected) != 0 {
		t.Fatal("actuator moved for an empty box")
	}
	if len(stock.decrements) != 0 {
		t.Fatal("stock decremented for an empty box")
	}
}

func TestDispenseMidRunFailureDecrementsActual(t *testing.T) {
	e, act, stock := newExecutor(10)
	act.failAfter = 1
	event, err := e.Dispense(context.Background(), 1, 3, "MED 1")
	if err == nil {
		t.Fatal("expected actuator error")
	}
	if event.PillsDispensed != 1 {
		t.Fatalf("dispensed = %d, want 1", event.PillsDispensed)
	}
	if event.Outcome != domain.DispensePartial {
		t.Fatalf("outcome = %s, want partial", event.Outcome)
	}
	if len(stock.decrements) != 1 || stock.decrements[0] != 1 {
		t.Fatalf("decrements = %v, want [1]", stock.decrements)
	}
	if act.homed != 1 {
		t.Fatal("actuator not re-homed after failure")
	}
}

func TestDispenseSelectFailureMovesNothing(t *testing.T) {
	e, act, stock := newExecutor(10)
	act.selectFail = true
	_, err := e.Dispense(context.Background(), 1, 2, "MED 1")
	if err == nil {
		t.Fatal("expected select error")
	}
	if act.releases != 0 || len(stock.decrements) != 0 {
		t.Fatal("pills released despite select failure")
	}
}
