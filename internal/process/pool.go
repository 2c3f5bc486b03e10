package process

import "golang.org/x/sync/semaphore"

// pool enforces the global cap on concurrently running agents with a
// weighted semaphore rather than a manually-maintained counter plus
// mutex: admission is a single non-blocking TryAcquire, and release is
// symmetric regardless of which terminal state ended the run.
type pool struct {
	sem *semaphore.Weighted
}

func newPool(capacity int) *pool {
	return &pool{sem: semaphore.NewWeighted(int64(capacity))}
}

// tryAdmit attempts to reserve one slot, returning false immediately if
// the pool is at capacity — there is no queueing, per §5's resource policy.
func (p *pool) tryAdmit() bool {
	return p.sem.TryAcquire(1)
}

func (p *pool) release() {
	p.sem.Release(1)
}
