package label

// Hard allow-lists for a dosage reading. Values outside the enumerated sets
// are rejected even when numerically plausible, so an OCR misread cannot
// produce a dangerous schedule.
var (
	validPillCounts    = map[int]bool{1: true, 2: true, 3: true, 4: true}
	validIntervalHours = map[int]bool{4: true, 6: true, 8: true, 12: true, 24: true}
)

// maxDailyPills caps the implied daily dose regardless of the per-intake count.
const maxDailyPills = 8

// Safe reports whether a dosage candidate falls inside the safety envelope.
func Safe(pills, intervalHours int) bool {
	if !validPillCounts[pills] {
		return false
	}
	if !validIntervalHours[intervalHours] {
		return false
	}
	return pills*(24/intervalHours) <= maxDailyPills
}
