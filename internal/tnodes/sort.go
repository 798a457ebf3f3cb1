package tnodes

import (
	"context"
	"sort"

	"github.com/Davknapp/tnodes/pkg/transport"
)

// ownedNode is one node this rank owns, in the canonical order used to
// assign sequential local indices before the global prefix sum.
type ownedNode struct {
	localID int
	node    *cnode
}

// globalNumbering holds this rank's share of the global node-id space:
// the sequential offset its owned nodes start at, and the resolved
// global id of every node it has learned one for so far (initially just
// its own owned nodes; distributeGlobalIDs fills in the rest).
type globalNumbering struct {
	owned       []ownedNode
	globalBase  int
	globalTotal int
	globalIDs   map[int]int32
}

// computeOwned scans the table for nodes this rank owns and sorts them by
// local id, so that the local-to-global assignment is reproducible across
// repeated runs over the same input.
func computeOwned(t *table, rank int) []ownedNode {
	var owned []ownedNode
	for id := 0; id < t.len(); id++ {
		n := t.get(id)
		if n != nil && n.IsOwnedBy(rank) {
			owned = append(owned, ownedNode{localID: id, node: n})
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].localID < owned[j].localID })
	return owned
}

// numberGlobally runs the run's only true collective: an Allgather of
// each rank's owned-node count, followed by an exclusive prefix sum to
// find this rank's base offset into the global id space.
func numberGlobally(ctx context.Context, comm transport.Comm, owned []ownedNode) (*globalNumbering, error) {
	counts, err := comm.Allgather(ctx, len(owned))
	if err != nil {
		return nil, errTransport(err)
	}
	if len(counts) != comm.Size() {
		return nil, errCountMismatch("allgather returned a count for every rank except some")
	}

	base := 0
	total := 0
	for r, c := range counts {
		if r < comm.Rank() {
			base += c
		}
		total += c
	}
	if total < 0 || int64(total) != int64(int32(total)) {
		return nil, errOverflow("global node count does not fit in a signed 32-bit id space")
	}

	ids := make(map[int]int32, len(owned))
	for i, o := range owned {
		ids[o.localID] = int32(base + i)
	}

	return &globalNumbering{owned: owned, globalBase: base, globalTotal: total, globalIDs: ids}, nil
}
