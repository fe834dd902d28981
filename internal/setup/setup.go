package setup

import (
	"context"
	"fmt"
	"log"
	"time"

	"meddispense/m/domain"
	"meddispense/m/internal/dispense"
	"meddispense/m/internal/scan"
)

// Toggle is the RFID collaborator: one discrete event per physical tap.
type Toggle interface {
	// WaitForToggle blocks until the next tap or ctx cancellation.
	WaitForToggle(ctx context.Context) error
	// Toggled reports, without blocking, whether a tap arrived since the
	// last check.
	Toggled() bool
}

// LabelScanner produces one decision per box.
type LabelScanner interface {
	Run(ctx context.Context, boxID int64) (domain.ScanDecision, error)
}

// Uploader persists one scan decision, locally and to the tracker.
type Uploader interface {
	SaveDecision(ctx context.Context, decision domain.ScanDecision) error
}

// Session is the RFID-gated setup phase: tap to start, scan each box label
// in turn, tap again to stop. The camera and actuator are held only for the
// session's lifetime and released on every exit path.
type Session struct {
	Toggle    Toggle
	Camera    scan.Camera
	Scanner   LabelScanner
	Aligner   dispense.Actuator
	Uploader  Uploader
	Boxes     int
	AlignWait time.Duration
}

// Run executes one full setup session.
func (s *Session) Run(ctx context.Context) error {
	log.Printf("setup: tap the RFID card to start the scan session")
	if err := s.Toggle.WaitForToggle(ctx); err != nil {
		return err
	}

	if err := s.Camera.Start(); err != nil {
		return fmt.Errorf("start camera: %w", err)
	}
	defer func() {
		if err := s.Camera.Stop(); err != nil {
			log.Printf("setup: camera stop failed: %v", err)
		}
		if err := s.Aligner.Home(); err != nil {
			log.Printf("setup: actuator home failed: %v", err)
		}
	}()

	boxes := s.Boxes
	if boxes <= 0 {
		boxes = domain.MaxBoxes
	}

	stopped := false
	for box := int64(1); box <= int64(boxes); box++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.Toggle.Toggled() {
			log.Printf("setup: stop tap detected, ending session early")
			stopped = true
			break
		}

		log.Printf("setup: scanning box %d/%d", box, boxes)
		if err := s.Aligner.SelectBox(box); err != nil {
			return fmt.Errorf("align box %d: %w", box, err)
		}
		if err := s.wait(ctx); err != nil {
			return err
		}

		decision, err := s.Scanner.Run(ctx, box)
		if err != nil {
			return fmt.Errorf("scan box %d: %w", box, err)
		}
		log.Printf("setup: box %d scan %s: %d pill(s) every %dh, qty %d",
			box, decision.Status, decision.Dosage.Pills, decision.Dosage.IntervalHours, decision.Quantity)

		if err := s.Uploader.SaveDecision(ctx, decision); err != nil {
			log.Printf("setup: box %d upload failed: %v", box, err)
		}

		if err := s.Aligner.Home(); err != nil {
			log.Printf("setup: actuator home failed: %v", err)
		}
	}

	if !stopped {
		log.Printf("setup: tap the RFID card to end the session")
		if err := s.Toggle.WaitForToggle(ctx); err != nil {
			return err
		}
	}
	log.Printf("setup complete")
	return nil
}

func (s *Session) wait(ctx context.Context) error {
	if s.AlignWait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.AlignWait):
		return nil
	}
}
