package purgequeue

import (
	"sync"

	"github.com/spacemonkeygo/monkit/v3"
)

var mon = monkit.Package()

// queueStats is chained into monkit once per Core, exposing the live
// gauges and counter named in §6: pq_executing_ops, pq_executing, and
// pq_executed. This mirrors the mon.Chain(stats) live-gauge pattern
// used for loop observer stats in the teacher's metainfo loop, rather
// than monkit's usual one-shot Observe calls — these three values need
// to read as current state, not as a distribution sample.
type queueStats struct {
	mu sync.Mutex

	executingOps uint64
	executing    uint64
	executed     uint64

	key monkit.SeriesKey
}

func newQueueStats() *queueStats {
	return &queueStats{key: monkit.NewSeriesKey("purgequeue")}
}

// Stats implements monkit.StatSource.
func (s *queueStats) Stats(cb func(key monkit.SeriesKey, field string, val float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb(s.key, "pq_executing_ops", float64(s.executingOps))
	cb(s.key, "pq_executing", float64(s.executing))
	cb(s.key, "pq_executed", float64(s.executed))
}

func (s *queueStats) setExecuting(opsInFlight uint32, items int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executingOps = uint64(opsInFlight)
	s.executing = uint64(items)
}

func (s *queueStats) incExecuted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed++
}
