package scan

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"meddispense/m/domain"
	"meddispense/m/internal/label"
)

// Camera is the capture collaborator. Start must succeed before Frame is
// called; Stop releases the device.
type Camera interface {
	Start() error
	Frame() ([]byte, error)
	Stop() error
}

// Recognizer turns one captured frame into raw label text. It is treated as
// a pure, if noisy, function.
type Recognizer interface {
	RecognizeText(ctx context.Context, frame []byte) (string, error)
}

const (
	DefaultFrames    = 5
	DefaultThreshold = 0.3
)

// SafeDosage is the conservative fallback applied when no trustworthy
// reading is obtained.
var SafeDosage = domain.DosageCandidate{Pills: 1, IntervalHours: 12}

// Scanner reduces several OCR readings of one label to a single decision.
type Scanner struct {
	Camera     Camera
	Recognizer Recognizer
	Frames     int
	Threshold  float64
	SettleWait time.Duration
}

// Run captures Frames readings for one box and votes on them. Frames whose
// reading fails extraction or the safety check contribute nothing to the
// vote; a capture failure aborts the whole session.
func (s *Scanner) Run(ctx context.Context, boxID int64) (domain.ScanDecision, error) {
	frames := s.Frames
	if frames <= 0 {
		frames = DefaultFrames
	}
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	dosageVotes := newTally[domain.DosageCandidate]()
	qtyVotes := newTally[int]()

	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return domain.ScanDecision{}, err
		}
		frame, err := s.Camera.Frame()
		if err != nil {
			return domain.ScanDecision{}, fmt.Errorf("capture frame %d: %w", i+1, err)
		}
		text, err := s.Recognizer.RecognizeText(ctx, frame)
		if err != nil {
			log.Printf("box %d frame %d: ocr failed: %v", boxID, i+1, err)
			continue
		}

		dosage, qty := label.Extract(text)
		if dosage != nil && label.Safe(dosage.Pills, dosage.IntervalHours) {
			dosageVotes.add(*dosage)
		}
		if qty > 0 {
			qtyVotes.add(qty)
		}

		if s.SettleWait > 0 && i < frames-1 {
			select {
			case <-ctx.Done():
				return domain.ScanDecision{}, ctx.Err()
			case <-time.After(s.SettleWait):
			}
		}
	}

	decision := domain.ScanDecision{
		SessionID: uuid.NewString(),
		BoxID:     boxID,
		Dosage:    SafeDosage,
		Status:    domain.ScanFailed,
	}
	if best, count, ok := dosageVotes.best(); ok {
		if float64(count)/float64(frames) >= threshold {
			decision.Dosage = best
			decision.Status = domain.ScanSuccess
		} else {
			decision.Status = domain.ScanLowConfidence
		}
	}
	// Quantity has no confidence gate: the majority value wins outright.
	if best, _, ok := qtyVotes.best(); ok {
		decision.Quantity = best
	}
	return decision, nil
}
