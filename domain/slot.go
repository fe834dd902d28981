package domain

import (
	"fmt"
	"time"
)

// MaxBoxes is the number of physical pill boxes on the carousel.
const MaxBoxes = 3

// MedicationSlot is the persisted record for one physical box.
type MedicationSlot struct {
	BoxID           int64   `db:"box_id" json:"box_id"`
	MedicationID    int64   `db:"medication_id" json:"medication_id"`
	MedicationName  string  `db:"medication_name" json:"medication_name"`
	TotalPills      int64   `db:"total_pills" json:"total_pills"`
	PillsPerIntake  int64   `db:"pills_per_intake" json:"pills_per_intake"`
	ScheduleTime1   string  `db:"schedule_time_1" json:"schedule_time_1"`
	ScheduleTime2   *string `db:"schedule_time_2" json:"schedule_time_2,omitempty"`
	Dispensed       int64   `db:"dispensed" json:"dispensed"`
	LastDispensedAt int64   `db:"last_dispensed_at" json:"last_dispensed_at,omitempty"`
}

// DueAt reports whether the slot is scheduled at the given "HH:MM" clock
// reading. Empty slots are never due.
func (s MedicationSlot) DueAt(hhmm string) bool {
	if s.TotalPills <= 0 {
		return false
	}
	if truncToMinute(s.ScheduleTime1) == hhmm {
		return true
	}
	return s.ScheduleTime2 != nil && truncToMinute(*s.ScheduleTime2) == hhmm
}

// truncToMinute reduces "HH:MM:SS" to "HH:MM".
func truncToMinute(t string) string {
	if len(t) > 5 {
		return t[:5]
	}
	return t
}

// NewSlotFromScan builds the slot record a fresh scan decision configures.
// The first intake lands at setup time and the second two minutes later, so
// a fresh setup can be verified end to end on the device.
func NewSlotFromScan(d ScanDecision, now time.Time) MedicationSlot {
	t2 := now.Add(2 * time.Minute).Format("15:04:05")
	return MedicationSlot{
		BoxID:          d.BoxID,
		MedicationName: fmt.Sprintf("MED %d", d.BoxID),
		TotalPills:     int64(d.Quantity),
		PillsPerIntake: int64(d.Dosage.Pills),
		ScheduleTime1:  now.Format("15:04:05"),
		ScheduleTime2:  &t2,
	}
}
