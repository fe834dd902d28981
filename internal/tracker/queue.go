package tracker

import (
	"context"
	"log"

	"meddispense/m/domain"
	"meddispense/m/internal/store"
)

// QueuedReporter uploads dispense events and queues the ones the tracker
// did not acknowledge, so decrements reach the shared database eventually
// and in order.
type QueuedReporter struct {
	Client *Client
	Store  *store.Store
}

// ReportDispense drains older queued reports first, then uploads this one.
// A failed upload is queued and returned as an error so the caller can log
// it; it is never fatal.
func (q *QueuedReporter) ReportDispense(ctx context.Context, event domain.DispenseEvent) error {
	q.Flush(ctx)

	if err := q.Client.ReportDispense(ctx, event); err != nil {
		if saveErr := q.Store.SavePendingReport(event); saveErr != nil {
			log.Printf("could not queue dispense report %s: %v", event.EventID, saveErr)
		}
		return err
	}
	return nil
}

// Flush retries queued reports oldest first, stopping at the first failure
// to preserve upload order.
func (q *QueuedReporter) Flush(ctx context.Context) {
	pending, err := q.Store.PendingReports()
	if err != nil {
		log.Printf("pending report lookup failed: %v", err)
		return
	}
	for _, report := range pending {
		event := domain.DispenseEvent{
			EventID:        report.EventID,
			BoxID:          report.BoxID,
			PillsDispensed: report.Dispensed,
		}
		if err := q.Client.ReportDispense(ctx, event); err != nil {
			log.Printf("retrying dispense report %s later: %v", report.EventID, err)
			return
		}
		if err := q.Store.DeletePendingReport(report.EventID); err != nil {
			log.Printf("could not drop acknowledged report %s: %v", report.EventID, err)
			return
		}
	}
}
