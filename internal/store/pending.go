package store

import (
	"fmt"

	"meddispense/m/domain"
)

// PendingReport is a dispense report the tracker has not acknowledged yet.
// While any exist, the local schedule copy stays authoritative so a remote
// sync cannot roll back an applied decrement.
type PendingReport struct {
	EventID   string `db:"event_id"`
	BoxID     int64  `db:"box_id"`
	Dispensed int64  `db:"dispensed"`
}

// SavePendingReport queues a dispense event for a later upload retry.
func (s *Store) SavePendingReport(event domain.DispenseEvent) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO pending_reports (event_id, box_id, dispensed) VALUES (?, ?, ?)`,
		event.EventID, event.BoxID, event.PillsDispensed)
	if err != nil {
		return fmt.Errorf("save pending report %s: %w", event.EventID, err)
	}
	return nil
}

// PendingReports returns queued reports oldest first.
func (s *Store) PendingReports() ([]PendingReport, error) {
	reports := []PendingReport{}
	err := s.db.Select(&reports, `SELECT event_id, box_id, dispensed FROM pending_reports ORDER BY created_at ASC, event_id ASC`)
	return reports, err
}

// PendingReportCount reports how many uploads are still owed to the tracker.
func (s *Store) PendingReportCount() (int64, error) {
	var n int64
	err := s.db.Get(&n, `SELECT COUNT(*) FROM pending_reports`)
	return n, err
}

// DeletePendingReport drops an acknowledged report.
func (s *Store) DeletePendingReport(eventID string) error {
	_, err := s.db.Exec(`DELETE FROM pending_reports WHERE event_id = ?`, eventID)
	return err
}
