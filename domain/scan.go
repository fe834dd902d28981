package domain

// ScanStatus classifies the outcome of one label scan session.
type ScanStatus string

const (
	ScanSuccess       ScanStatus = "SUCCESS"
	ScanLowConfidence ScanStatus = "LOW_CONFIDENCE"
	ScanFailed        ScanStatus = "FAILED"
)

// DosageCandidate is one (pills-per-dose, interval-hours) reading proposed
// by a single OCR frame.
type DosageCandidate struct {
	Pills         int `json:"pills"`
	IntervalHours int `json:"interval_hours"`
}

// ScanDecision is the final verdict of a multi-frame label scan for one box.
// It is immutable once emitted.
type ScanDecision struct {
	SessionID string          `json:"session_id"`
	BoxID     int64           `json:"box_id"`
	Dosage    DosageCandidate `json:"dosage"`
	Quantity  int             `json:"quantity"`
	Status    ScanStatus      `json:"status"`
}
