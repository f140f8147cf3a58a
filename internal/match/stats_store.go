package match

import "sync"

var (
	statsMu  sync.Mutex
	statsTab = map[string]Stats{}
)

// RecordStats keeps the latest per-day matching stats in memory for the ops
// surface to read back.
func RecordStats(day string, s Stats) {
	statsMu.Lock()
	statsTab[day] = s
	statsMu.Unlock()
}

func GetStats(day string) (Stats, bool) {
	statsMu.Lock()
	defer statsMu.Unlock()
	s, ok := statsTab[day]
	return s, ok
}
