package queue

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/hashmap"
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"go.uber.org/zap"

	"ticketgate/waitroom-server/pkg/config"
	"ticketgate/waitroom-server/pkg/infra"
)

// Stats tracks each queue's recent admission counts in a fixed size
// sliding window so the publisher can estimate how long a freshly
// issued ticket will wait. The scheduler writes after every sweep; the
// publisher reads on its own ticker, hence the lock.
type Stats struct {
	// Key value: queueId -> *linkedlistqueue.Queue of int64 admission
	// counts, one per sweep tick.
	windows *hashmap.Map

	windowSize    int
	sweepInterval time.Duration

	mu     sync.Mutex
	logger *zap.SugaredLogger
}

func ProvideStats(loggerFactory *infra.LoggerFactory) *Stats {
	return &Stats{
		windows:       hashmap.New(),
		windowSize:    *config.CFG.AdmitRateWindowSize,
		sweepInterval: time.Duration(*config.CFG.SweepIntervalSeconds) * time.Second,
		logger:        loggerFactory.Create("Stats").Sugar(),
	}
}

func (s *Stats) RecordAdmitted(queueId string, admitted int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var window *linkedlistqueue.Queue
	if value, ok := s.windows.Get(queueId); ok {
		window = value.(*linkedlistqueue.Queue)
	} else {
		window = linkedlistqueue.New()
		s.windows.Put(queueId, window)
	}

	if window.Size() >= s.windowSize {
		window.Dequeue()
	}
	window.Enqueue(admitted)
}

// EstimateWait extrapolates from the windowed admission rate how long
// a ticket with the given number of positions ahead of it will wait.
// Returns false while the queue has admitted nobody in the window.
func (s *Stats) EstimateWait(queueId string, waiting int64) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.windows.Get(queueId)
	if !ok {
		return 0, false
	}
	window := value.(*linkedlistqueue.Queue)
	if window.Size() <= 0 {
		return 0, false
	}

	var total int64
	it := window.Iterator()
	for it.Next() {
		total += it.Value().(int64)
	}
	if total <= 0 {
		return 0, false
	}

	perTick := float64(total) / float64(window.Size())
	ticks := float64(waiting) / perTick
	return time.Duration(ticks * float64(s.sweepInterval)), true
}

// Forget drops a closed queue's window.
func (s *Stats) Forget(queueId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows.Remove(queueId)
}
