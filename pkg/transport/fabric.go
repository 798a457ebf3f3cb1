package transport

import (
	"context"
	"reflect"
	"sync"
)

// round is one Allgather-shaped barrier rendezvous: every rank
// contributes a value and all release together once the last one
// arrives.
type round struct {
	mu      sync.Mutex
	arrived int
	values  []int
	done    chan struct{}
}

func newRound(size int) *round {
	return &round{values: make([]int, size), done: make(chan struct{})}
}

// barrier runs successive Allgather/Bcast rendezvous rounds. Rounds are
// anonymous: whichever call arrives at a fabric's barrier next, from every
// rank, forms a round together, so Allgather and Bcast must be called in
// the same relative order by every rank for a run to make sense.
type barrier struct {
	size int
	mu   sync.Mutex
	cur  *round
}

func newBarrier(size int) *barrier {
	return &barrier{size: size, cur: newRound(size)}
}

func (b *barrier) arrive(ctx context.Context, rank, value int) ([]int, error) {
	b.mu.Lock()
	r := b.cur
	r.mu.Lock()
	r.values[rank] = value
	r.arrived++
	last := r.arrived == b.size
	if last {
		b.cur = newRound(b.size)
	}
	r.mu.Unlock()
	b.mu.Unlock()

	if last {
		result := append([]int(nil), r.values...)
		close(r.done)
		return result, nil
	}
	select {
	case <-r.done:
		return append([]int(nil), r.values...), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// matchKey identifies the (source rank, tag) pair an Irecv matches
// against.
type matchKey struct {
	src int
	tag Tag
}

// message is one in-flight point-to-point payload.
type message struct {
	src     int
	tag     Tag
	payload []int32
}

// requestState backs one outstanding Irecv.
type requestState struct {
	key    matchKey
	mu     sync.Mutex
	done   chan struct{}
	closed bool
	result []int32
}

func (rs *requestState) fulfill(payload []int32) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.closed {
		return
	}
	rs.result = payload
	rs.closed = true
	close(rs.done)
}

// rankInbox holds buffered messages and outstanding receive requests for
// one rank.
type rankInbox struct {
	mu      sync.Mutex
	queued  map[matchKey][][]int32
	waiting map[matchKey][]*requestState
}

func newRankInbox() *rankInbox {
	return &rankInbox{
		queued:  make(map[matchKey][][]int32),
		waiting: make(map[matchKey][]*requestState),
	}
}

// deliver hands an arrived message to the oldest waiting request with a
// matching key, or buffers it until one registers.
func (rb *rankInbox) deliver(msg message) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	key := matchKey{src: msg.src, tag: msg.tag}
	if waiters := rb.waiting[key]; len(waiters) > 0 {
		rs := waiters[0]
		rb.waiting[key] = waiters[1:]
		rs.fulfill(msg.payload)
		return
	}
	rb.queued[key] = append(rb.queued[key], msg.payload)
}

// register installs a receive request, fulfilling it immediately if a
// matching message has already been buffered.
func (rb *rankInbox) register(rs *requestState) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if q := rb.queued[rs.key]; len(q) > 0 {
		payload := q[0]
		rb.queued[rs.key] = q[1:]
		rs.fulfill(payload)
		return
	}
	rb.waiting[rs.key] = append(rb.waiting[rs.key], rs)
}

// Request is a handle to an outstanding or completed non-blocking
// operation.
type Request struct {
	send  bool
	state *requestState
}

// Result returns the payload a completed receive request matched. It
// returns nil for a send request, or for a receive request that has not
// completed yet.
func (r Request) Result() []int32 {
	if r.send || r.state == nil {
		return nil
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if !r.state.closed {
		return nil
	}
	return r.state.result
}

func (r Request) isDone() bool {
	if r.send || r.state == nil {
		return true
	}
	select {
	case <-r.state.done:
		return true
	default:
		return false
	}
}

func (r Request) doneChan() <-chan struct{} {
	if r.send || r.state == nil {
		c := make(chan struct{})
		close(c)
		return c
	}
	return r.state.done
}

// LocalFabric is an in-process implementation of Comm shared by every
// rank in a run: one goroutine per rank, communicating over the fabric's
// shared inboxes and barrier instead of a real network or MPI runtime.
type LocalFabric struct {
	size      int
	allgather *barrier
	inboxes   []*rankInbox
}

// NewLocalFabric creates a fabric for a run of size ranks.
func NewLocalFabric(size int) *LocalFabric {
	f := &LocalFabric{
		size:      size,
		allgather: newBarrier(size),
		inboxes:   make([]*rankInbox, size),
	}
	for i := range f.inboxes {
		f.inboxes[i] = newRankInbox()
	}
	return f
}

// Comm returns the Comm view of this fabric for one rank.
func (f *LocalFabric) Comm(rank int) Comm {
	return &rankComm{fabric: f, rank: rank}
}

type rankComm struct {
	fabric *LocalFabric
	rank   int
}

func (c *rankComm) Rank() int { return c.rank }
func (c *rankComm) Size() int { return c.fabric.size }

func (c *rankComm) Allgather(ctx context.Context, send int) ([]int, error) {
	return c.fabric.allgather.arrive(ctx, c.rank, send)
}

func (c *rankComm) Bcast(ctx context.Context, value *int, root int) error {
	send := 0
	if c.rank == root {
		send = *value
	}
	result, err := c.fabric.allgather.arrive(ctx, c.rank, send)
	if err != nil {
		return err
	}
	*value = result[root]
	return nil
}

func (c *rankComm) Isend(ctx context.Context, dest int, tag Tag, payload []int32) (Request, error) {
	cp := append([]int32(nil), payload...)
	c.fabric.inboxes[dest].deliver(message{src: c.rank, tag: tag, payload: cp})
	return Request{send: true}, nil
}

func (c *rankComm) Irecv(ctx context.Context, src int, tag Tag, count int) (Request, error) {
	rs := &requestState{key: matchKey{src: src, tag: tag}, done: make(chan struct{})}
	c.fabric.inboxes[c.rank].register(rs)
	_ = count // the fabric trusts the sender's payload length; count documents intent
	return Request{state: rs}, nil
}

// Waitsome blocks until at least one request completes, using
// reflect.Select to fan in over a dynamic number of completion channels
// plus ctx.Done.
func (c *rankComm) Waitsome(ctx context.Context, reqs []Request) ([]int, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	for {
		var completed []int
		for i, r := range reqs {
			if r.isDone() {
				completed = append(completed, i)
			}
		}
		if len(completed) > 0 {
			return completed, nil
		}

		cases := make([]reflect.SelectCase, 0, len(reqs)+1)
		for _, r := range reqs {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(r.doneChan())})
		}
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
		chosen, _, _ := reflect.Select(cases)
		if chosen == len(reqs) {
			return nil, ctx.Err()
		}
	}
}
