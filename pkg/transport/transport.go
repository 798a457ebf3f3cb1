// Package transport provides an MPI-shaped communication abstraction for
// running the node-numbering algorithm across a cohort of processes,
// together with an in-process goroutine/channel implementation for tests
// and the simulate command. No MPI binding is used or required: every
// rank in a run is a goroutine sharing one LocalFabric.
package transport

import "context"

// Tag discriminates concurrent non-blocking exchanges between the same
// pair of ranks, the way an MPI tag would.
type Tag int

// Tags used by the exchange engine.
const (
	TagQuery Tag = iota + 1
	TagReply
)

// Comm is the collective and point-to-point communication surface the
// numbering core needs from a process group.
type Comm interface {
	// Rank returns this process's position in the group, 0-based.
	Rank() int
	// Size returns the number of processes in the group.
	Size() int

	// Allgather exchanges one int per rank and returns every rank's value,
	// indexed by rank. It blocks until every rank has called Allgather for
	// the same round; all ranks must call it the same number of times, in
	// the same order, for a run to make progress.
	Allgather(ctx context.Context, send int) ([]int, error)

	// Bcast distributes the value root provides to every rank. Non-root
	// callers' *value is overwritten with root's; root's own value is
	// unchanged.
	Bcast(ctx context.Context, value *int, root int) error

	// Isend starts a non-blocking send of payload to dest tagged tag. It
	// returns immediately with an already-complete Request: once Isend
	// returns, payload has been copied into the fabric and the caller may
	// reuse its backing array.
	Isend(ctx context.Context, dest int, tag Tag, payload []int32) (Request, error)

	// Irecv starts a non-blocking receive of count int32 values from src
	// tagged tag and returns a Request that completes once the matching
	// send has arrived. The Request carries the payload the sender supplied;
	// LocalFabric does not check its length against count.
	Irecv(ctx context.Context, src int, tag Tag, count int) (Request, error)

	// Waitsome blocks until at least one of reqs completes or ctx is done,
	// and returns the indices into reqs of every request that has
	// completed. An empty reqs slice returns immediately with a nil
	// result.
	Waitsome(ctx context.Context, reqs []Request) ([]int, error)
}
