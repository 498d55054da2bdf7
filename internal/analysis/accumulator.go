package analysis

import "sort"

// scoreEntry accumulates occurrence counts for one normalized candidate name.
// display keeps the first-seen original spelling for output; firstSeen fixes
// the tertiary sort order so equal-count candidates rank deterministically.
type scoreEntry struct {
	display   string
	count     int
	within24h int
	firstSeen int
}

// accumulator is an insertion-ordered occurrence counter keyed by normalized
// name. It replaces ad-hoc map merges with an explicit get-or-insert-default
// operation so every count update goes through one code path.
type accumulator struct {
	entries map[string]*scoreEntry
	next    int
}

func newAccumulator() *accumulator {
	return &accumulator{entries: make(map[string]*scoreEntry)}
}

// record increments the counters for key, creating the entry on first sight.
func (a *accumulator) record(key, display string, within24h bool) {
	entry, ok := a.entries[key]
	if !ok {
		entry = &scoreEntry{display: display, firstSeen: a.next}
		a.entries[key] = entry
		a.next++
	}
	entry.count++
	if within24h {
		entry.within24h++
	}
}

// ranked returns all entries with their normalized keys, sorted by count
// descending, then within-24h count descending (recency proxy), then
// first-seen order for stability.
func (a *accumulator) ranked() []rankedEntry {
	out := make([]rankedEntry, 0, len(a.entries))
	for key, entry := range a.entries {
		out = append(out, rankedEntry{key: key, scoreEntry: *entry})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		if out[i].within24h != out[j].within24h {
			return out[i].within24h > out[j].within24h
		}
		return out[i].firstSeen < out[j].firstSeen
	})
	return out
}

type rankedEntry struct {
	key string
	scoreEntry
}
