package channel

import (
	"sync"
	"time"
)

type result struct {
	payload []byte
	err     error
}

// pendingRequest tracks one in-flight command from submission until its
// response arrives, the channel dies, or the caller cancels.
type pendingRequest struct {
	id        uint64
	submitted time.Time
	once      sync.Once
	done      chan result
}

func newPendingRequest(id uint64) *pendingRequest {
	return &pendingRequest{
		id:        id,
		submitted: time.Now(),
		done:      make(chan result, 1),
	}
}

// resolve completes the request exactly once; later calls are no-ops.
func (p *pendingRequest) resolve(payload []byte, err error) {
	p.once.Do(func() {
		p.done <- result{payload: payload, err: err}
	})
}

// pendingTable is the correlation map from id to in-flight request.
// The lock is held only for map mutation, never across I/O.
type pendingTable struct {
	mu sync.Mutex
	m  map[uint64]*pendingRequest
}

func newPendingTable() *pendingTable {
	return &pendingTable{m: make(map[uint64]*pendingRequest)}
}

func (t *pendingTable) add(p *pendingRequest) {
	t.mu.Lock()
	t.m[p.id] = p
	t.mu.Unlock()
}

// take removes and returns the request for id, if present.
func (t *pendingTable) take(id uint64) (*pendingRequest, bool) {
	t.mu.Lock()
	p, ok := t.m[id]
	if ok {
		delete(t.m, id)
	}
	t.mu.Unlock()
	return p, ok
}

// remove deletes id and reports whether it was still pending.
func (t *pendingTable) remove(id uint64) bool {
	_, ok := t.take(id)
	return ok
}

// drain empties the table and returns every request that was pending.
func (t *pendingTable) drain() []*pendingRequest {
	t.mu.Lock()
	drained := make([]*pendingRequest, 0, len(t.m))
	for _, p := range t.m {
		drained = append(drained, p)
	}
	t.m = make(map[uint64]*pendingRequest)
	t.mu.Unlock()
	return drained
}

// size returns the number of in-flight requests.
func (t *pendingTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
