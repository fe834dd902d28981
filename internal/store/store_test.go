package store

import (
	"errors"
	"testing"

	"meddispense/m/domain"
	"meddispense/m/internal/database"
	"meddispense/m/internal/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := database.Connect(":memory:")
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)
	return New(db)
}

func strPtr(s string) *string { return &s }

func testSlot(boxID int64) domain.MedicationSlot {
	return domain.MedicationSlot{
		BoxID:          boxID,
		MedicationName: "Amoxicillin",
		TotalPills:     30,
		PillsPerIntake: 2,
		ScheduleTime1:  "08:30:00",
		ScheduleTime2:  strPtr("20:30:00"),
	}
}

func TestUpsertSlotIdempotent(t *testing.T) {
	s := newTestStore(t)
	slot := testSlot(1)

	if err := s.UpsertSlot(slot); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertSlot(slot); err != nil {
		t.Fatal(err)
	}

	got, err := s.Slot(1)
	if err != nil {
		t.Fatal(err)
	}
	if got.MedicationName != slot.MedicationName ||
		got.TotalPills != slot.TotalPills ||
		got.PillsPerIntake != slot.PillsPerIntake ||
		got.ScheduleTime1 != slot.ScheduleTime1 ||
		*got.ScheduleTime2 != *slot.ScheduleTime2 {
		t.Fatalf("slot changed across identical upserts: %+v", got)
	}

	slots, err := s.Slots()
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 {
		t.Fatalf("len(slots) = %d, want 1", len(slots))
	}
}

func TestUpsertSlotOverwrites(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertSlot(testSlot(1)); err != nil {
		t.Fatal(err)
	}
	redo := testSlot(1)
	redo.MedicationName = "Ibuprofen"
	redo.TotalPills = 90
	if err := s.UpsertSlot(redo); err != nil {
		t.Fatal(err)
	}
	got, err := s.Slot(1)
	if err != nil {
		t.Fatal(err)
	}
	if got.MedicationName != "Ibuprofen" || got.TotalPills != 90 {
		t.Fatalf("slot not overwritten: %+v", got)
	}
}

func TestSlotNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Slot(7); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("err = %v, want ErrSlotNotFound", err)
	}
	if err := s.DeleteSlot(7); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("delete err = %v, want ErrSlotNotFound", err)
	}
}

func TestDueSlots(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertSlot(testSlot(1)); err != nil {
		t.Fatal(err)
	}
	other := testSlot(2)
	other.ScheduleTime1 = "12:00:00"
	other.ScheduleTime2 = nil
	if err := s.UpsertSlot(other); err != nil {
		t.Fatal(err)
	}
	empty := testSlot(3)
	empty.TotalPills = 0
	if err := s.UpsertSlot(empty); err != nil {
		t.Fatal(err)
	}

	due, err := s.DueSlots("08:30")
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].BoxID != 1 {
		t.Fatalf("DueSlots(08:30) = %+v, want box 1 only", due)
	}

	// Second daily schedule matches too, at minute resolution.
	due, err = s.DueSlots("20:30")
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].BoxID != 1 {
		t.Fatalf("DueSlots(20:30) = %+v, want box 1 only", due)
	}

	due, err = s.DueSlots("09:15")
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Fatalf("DueSlots(09:15) = %+v, want none", due)
	}
}

func TestDecrementStockClamps(t *testing.T) {
	s := newTestStore(t)
	slot := testSlot(1)
	slot.TotalPills = 4
	if err := s.UpsertSlot(slot); err != nil {
		t.Fatal(err)
	}

	remaining, err := s.DecrementStock(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}

	got, err := s.Slot(1)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalPills != 0 {
		t.Fatalf("total_pills = %d, want 0", got.TotalPills)
	}
	if got.Dispensed != 10 {
		t.Fatalf("dispensed counter = %d, want 10", got.Dispensed)
	}
	if got.LastDispensedAt == 0 {
		t.Fatal("last_dispensed_at not recorded")
	}

	if _, err := s.DecrementStock(9, 1); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("err = %v, want ErrSlotNotFound", err)
	}
}

func TestReplaceSlots(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertSlot(testSlot(1)); err != nil {
		t.Fatal(err)
	}
	mirror := []domain.MedicationSlot{testSlot(2), testSlot(3)}
	if err := s.ReplaceSlots(mirror); err != nil {
		t.Fatal(err)
	}
	slots, err := s.Slots()
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 || slots[0].BoxID != 2 || slots[1].BoxID != 3 {
		t.Fatalf("slots after replace = %+v", slots)
	}
}

func TestPendingReports(t *testing.T) {
	s := newTestStore(t)
	event := domain.DispenseEvent{EventID: "ev-1", BoxID: 1, PillsDispensed: 2}

	if err := s.SavePendingReport(event); err != nil {
		t.Fatal(err)
	}
	// Saving the same event twice must not duplicate it.
	if err := s.SavePendingReport(event); err != nil {
		t.Fatal(err)
	}

	n, err := s.PendingReportCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("pending count = %d, want 1", n)
	}

	reports, err := s.PendingReports()
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || reports[0].EventID != "ev-1" || reports[0].Dispensed != 2 {
		t.Fatalf("pending reports = %+v", reports)
	}

	if err := s.DeletePendingReport("ev-1"); err != nil {
		t.Fatal(err)
	}
	n, err = s.PendingReportCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("pending count after delete = %d, want 0", n)
	}
}
