package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"meddispense/m/domain"
)

// Stock levels that trigger operator warnings.
const (
	LowStockThreshold      = 10
	CriticalStockThreshold = 5
)

// ErrSlotNotFound is returned when a box has no configured medication.
var ErrSlotNotFound = errors.New("slot not found")

// Store holds the medication schedule table. On the device it is the local
// authoritative copy; on the tracker it is the shared database.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const slotColumns = `box_id, medication_id, medication_name, total_pills, pills_per_intake, schedule_time_1, schedule_time_2, dispensed, last_dispensed_at`

// UpsertSlot writes the record for a box, replacing any previous setup.
func (s *Store) UpsertSlot(slot domain.MedicationSlot) error {
	_, err := s.db.Exec(`INSERT INTO medications (box_id, medication_id, medication_name, total_pills, pills_per_intake, schedule_time_1, schedule_time_2, dispensed)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(box_id) DO UPDATE SET
            medication_id = excluded.medication_id,
            medication_name = excluded.medication_name,
            total_pills = excluded.total_pills,
            pills_per_intake = excluded.pills_per_intake,
            schedule_time_1 = excluded.schedule_time_1,
            schedule_time_2 = excluded.schedule_time_2,
            dispensed = excluded.dispensed,
            updated_at = CURRENT_TIMESTAMP`,
		slot.BoxID, slot.MedicationID, slot.MedicationName, slot.TotalPills,
		slot.PillsPerIntake, slot.ScheduleTime1, slot.ScheduleTime2, slot.Dispensed)
	if err != nil {
		return fmt.Errorf("upsert slot %d: %w", slot.BoxID, err)
	}
	return nil
}

// Slots returns every configured slot ordered by box.
func (s *Store) Slots() ([]domain.MedicationSlot, error) {
	slots := []domain.MedicationSlot{}
	err := s.db.Select(&slots, `SELECT `+slotColumns+` FROM medications ORDER BY box_id ASC`)
	return slots, err
}

// Slot returns the record for one box.
func (s *Store) Slot(boxID int64) (domain.MedicationSlot, error) {
	var slot domain.MedicationSlot
	err := s.db.Get(&slot, `SELECT `+slotColumns+` FROM medications WHERE box_id = ?`, boxID)
	if errors.Is(err, sql.ErrNoRows) {
		return slot, ErrSlotNotFound
	}
	return slot, err
}

// DueSlots returns slots scheduled at hhmm ("08:30") that still hold stock.
func (s *Store) DueSlots(hhmm string) ([]domain.MedicationSlot, error) {
	slots := []domain.MedicationSlot{}
	err := s.db.Select(&slots, `SELECT `+slotColumns+` FROM medications
        WHERE total_pills > 0
          AND (substr(schedule_time_1, 1, 5) = ? OR substr(COALESCE(schedule_time_2, ''), 1, 5) = ?)
        ORDER BY box_id ASC`, hhmm, hhmm)
	return slots, err
}

// DecrementStock subtracts the actually dispensed count from a box, clamping
// at zero, and returns the remaining stock. Over-decrementing is not an
// error; callers use the returned value for low-stock warnings.
func (s *Store) DecrementStock(boxID, dispensed int64) (int64, error) {
	var remaining int64
	err := s.db.QueryRow(`UPDATE medications
        SET total_pills = MAX(total_pills - ?, 0),
            dispensed = dispensed + ?,
            last_dispensed_at = ?,
            updated_at = CURRENT_TIMESTAMP
        WHERE box_id = ?
        RETURNING total_pills`, dispensed, dispensed, time.Now().Unix(), boxID).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSlotNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("decrement stock for box %d: %w", boxID, err)
	}
	return remaining, nil
}

// DeleteSlot removes a box configuration.
func (s *Store) DeleteSlot(boxID int64) error {
	res, err := s.db.Exec(`DELETE FROM medications WHERE box_id = ?`, boxID)
	if err != nil {
		return fmt.Errorf("delete slot %d: %w", boxID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// ReplaceSlots mirrors the given schedule table, typically the tracker's
// answer, over the local copy in one transaction.
func (s *Store) ReplaceSlots(slots []domain.MedicationSlot) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("replace slots: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM medications`); err != nil {
		return fmt.Errorf("replace slots: %w", err)
	}
	for _, slot := range slots {
		_, err := tx.Exec(`INSERT INTO medications (box_id, medication_id, medication_name, total_pills, pills_per_intake, schedule_time_1, schedule_time_2, dispensed, last_dispensed_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			slot.BoxID, slot.MedicationID, slot.MedicationName, slot.TotalPills,
			slot.PillsPerIntake, slot.ScheduleTime1, slot.ScheduleTime2,
			slot.Dispensed, slot.LastDispensedAt)
		if err != nil {
			return fmt.Errorf("replace slot %d: %w", slot.BoxID, err)
		}
	}
	return tx.Commit()
}
