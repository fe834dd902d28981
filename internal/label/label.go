package label

import (
	"regexp"
	"strconv"
	"strings"

	"meddispense/m/domain"
)

// wordToNum covers the number words that show up on US prescription labels.
var wordToNum = map[string]int{
	"ONE": 1, "TWO": 2, "THREE": 3, "FOUR": 4,
	"SIX": 6, "EIGHT": 8, "TWELVE": 12, "TWENTY": 20, "THIRTY": 30,
}

// Normalize maps a digit string or a lexicon word to its numeric value.
// The second return is false for tokens that carry no number, which is the
// common case on a label and not an error.
func Normalize(token string) (int, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return 0, false
	}
	if isDigits(token) {
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	n, ok := wordToNum[token]
	return n, ok
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Dosage patterns are ordered most specific first; the first match wins.
var dosagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`TAKE\s+(\d+|ONE|TWO|THREE|FOUR)\s+TABLET(S)?\s+EVERY\s+(\d+|FOUR|SIX|EIGHT|TWELVE)\s+HOUR(S)?`),
	regexp.MustCompile(`TAKE\s+(\d+|ONE|TWO|THREE|FOUR)\s+TABLET(S)?\s+(EVERY\s+DAY|DAILY|ONCE\s+DAILY)`),
	regexp.MustCompile(`(EVERY\s+DAY|DAILY)`),
}

var qtyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:QTY|QUANTITY|TOTAL)\s*[:.]?\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s+(?:TAB|TABLET|CAP|CAPSULE)S?\b`),
}

// Plausible packaging range for a total-quantity reading.
const (
	MinQuantity = 5
	MaxQuantity = 200
)

// Extract scans one OCR text blob for a dosage and a total quantity. Either
// may be absent; absence is the normal no-match outcome, not an error. The
// two extractions are independent and do not block each other.
func Extract(text string) (*domain.DosageCandidate, int) {
	text = strings.ReplaceAll(strings.ToUpper(text), "EVERY DAY", "DAILY")

	var dosage *domain.DosageCandidate
	for _, re := range dosagePatterns {
		matched := re.FindString(text)
		if matched == "" {
			continue
		}
		words := strings.Fields(matched)

		pills := 1
		for _, w := range words {
			if v, ok := Normalize(w); ok && v != 0 {
				pills = v
				break
			}
		}

		interval := 24
		if strings.Contains(matched, "HOUR") {
			var nums []int
			for _, w := range words {
				if v, ok := Normalize(w); ok {
					nums = append(nums, v)
				}
			}
			// An hour-bearing match with fewer than two numeric tokens is
			// ambiguous; fall back to 6h rather than guess further.
			interval = 6
			if len(nums) >= 2 {
				interval = nums[len(nums)-1]
			}
		}

		dosage = &domain.DosageCandidate{Pills: pills, IntervalHours: interval}
		break
	}

	qty := 0
	for _, re := range qtyPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n >= MinQuantity && n <= MaxQuantity {
			qty = n
			break
		}
	}

	return dosage, qty
}
