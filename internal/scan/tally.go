package scan

// tally counts votes while remembering first-seen order, so ties between
// equally frequent candidates break deterministically in favor of the
// earlier one.
type tally[K comparable] struct {
	counts map[K]int
	order  []K
}

func newTally[K comparable]() *tally[K] {
	return &tally[K]{counts: map[K]int{}}
}

func (t *tally[K]) add(k K) {
	if _, ok := t.counts[k]; !ok {
		t.order = append(t.order, k)
	}
	t.counts[k]++
}

func (t *tally[K]) best() (K, int, bool) {
	var best K
	bestCount := 0
	for _, k := range t.order {
		if t.counts[k] > bestCount {
			best, bestCount = k, t.counts[k]
		}
	}
	return best, bestCount, bestCount > 0
}
