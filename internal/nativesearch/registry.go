package nativesearch

import "sync"

// liveQuery is an in-flight notification query as seen by the registry.
type liveQuery struct {
	// wake interrupts the run loop the query's owner is blocked in.
	// It must be safe to call from any thread.
	wake func()

	once      sync.Once
	done      chan struct{}
	preempted bool
}

func newLiveQuery(wake func()) *liveQuery {
	return &liveQuery{wake: wake, done: make(chan struct{})}
}

// signal marks the query finished and wakes its owner. Only the first call
// has any effect.
func (q *liveQuery) signal(preempted bool) {
	q.once.Do(func() {
		q.preempted = preempted
		close(q.done)
		if q.wake != nil {
			q.wake()
		}
	})
}

// Done is closed once the query finished gathering, was preempted or was
// torn down.
func (q *liveQuery) Done() <-chan struct{} { return q.done }

// Preempted is valid after Done is closed.
func (q *liveQuery) Preempted() bool {
	<-q.done
	return q.preempted
}

// Registry is the process-wide single slot holding the query currently
// blocking a run loop.
type Registry struct {
	mu   sync.Mutex
	live *liveQuery
}

// ReplaceAndStop installs q and stops the previous occupant, if any.
// It returns the displaced query.
//
// Stopping only signals the previous query and wakes its run loop. The
// native stop runs later on that query's own thread, so q may start before
// the displaced query has actually stopped.
func (r *Registry) ReplaceAndStop(q *liveQuery) *liveQuery {
	r.mu.Lock()
	prev := r.live
	r.live = q
	r.mu.Unlock()

	if prev != nil && prev != q {
		prev.signal(true)
		return prev
	}
	return nil
}

// Finish stops q and clears the slot if q still occupies it. It reports
// whether q was the occupant. Calling Finish more than once is harmless.
func (r *Registry) Finish(q *liveQuery) bool {
	r.mu.Lock()
	owned := r.live == q
	if owned {
		r.live = nil
	}
	r.mu.Unlock()

	q.signal(false)
	return owned
}

// Current returns the occupant, or nil.
func (r *Registry) Current() *liveQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}
