package scheduler

import (
	"context"
	"errors"
	"log"

	"meddispense/m/domain"
	"meddispense/m/internal/store"
)

// RemoteSchedule is the tracker-side slot listing.
type RemoteSchedule interface {
	List(ctx context.Context) ([]domain.MedicationSlot, error)
}

// SyncedSource reads the tracker schedule and mirrors it into the local
// store, falling back to the local copy when the tracker is unreachable.
// While dispense reports are still owed to the tracker, the local copy is
// served instead, so the remote's stale stock numbers cannot roll back a
// decrement that already happened here.
type SyncedSource struct {
	Remote RemoteSchedule // optional
	Local  *store.Store
}

func (s *SyncedSource) Slots(ctx context.Context) ([]domain.MedicationSlot, error) {
	if s.Local != nil {
		pending, err := s.Local.PendingReportCount()
		if err != nil {
			return nil, err
		}
		if pending > 0 {
			log.Printf("%d dispense report(s) still unsynced, keeping local schedule authoritative", pending)
			return s.Local.Slots()
		}
	}

	if s.Remote != nil {
		slots, err := s.Remote.List(ctx)
		if err == nil {
			if s.Local != nil {
				if err := s.Local.ReplaceSlots(slots); err != nil {
					log.Printf("local schedule mirror failed: %v", err)
				}
			}
			return slots, nil
		}
		log.Printf("tracker unreachable, using local schedule: %v", err)
	}

	if s.Local == nil {
		return nil, errors.New("no schedule source available")
	}
	return s.Local.Slots()
}
