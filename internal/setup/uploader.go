package setup

import (
	"context"
	"log"
	"time"

	"meddispense/m/domain"
	"meddispense/m/internal/store"
	"meddispense/m/internal/tracker"
)

// StoreUploader writes scan decisions to the local store and pushes them to
// the tracker. The local write is authoritative; a failed push is logged
// and the tracker catches up on the next successful sync.
type StoreUploader struct {
	Local  *store.Store
	Remote *tracker.Client // optional
	Now    func() time.Time
}

func (u *StoreUploader) SaveDecision(ctx context.Context, decision domain.ScanDecision) error {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	slot := domain.NewSlotFromScan(decision, now())

	if err := u.Local.UpsertSlot(slot); err != nil {
		return err
	}
	if u.Remote != nil {
		if err := u.Remote.UpsertSlot(ctx, slot); err != nil {
			log.Printf("box %d: tracker upload failed, local schedule kept: %v", slot.BoxID, err)
		}
	}
	return nil
}
