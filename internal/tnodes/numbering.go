package tnodes

import (
	"context"
	"sort"

	"github.com/Davknapp/tnodes/pkg/transport"
	"github.com/Davknapp/tnodes/pkg/utils"
)

// defaultArenaBlockSize is the number of cnodes allocated per arena block.
// Chosen to keep block count low for typical per-rank element counts
// without over-allocating for small test fixtures.
const defaultArenaBlockSize = 1024

// Output is the result of one numbering run for this rank: every local
// element's node slots resolved to global ids, the configuration each
// element was finally numbered under, and the sharer lists a caller needs
// to keep ids in sync across later mesh operations.
type Output struct {
	rank            int
	numElements     int
	configurations  []uint8
	faceCodes       []uint8
	globalNodeID    map[localKey]int32
	globalNodeCount int
	sharers         *sharerLists
	timer           *utils.Timer

	ownedCount   int
	sharedCount  int
	globalOffset int
	nodeIDVector []int32
	nonLocalIDs  []int32
}

// Rank returns the process this output was computed for.
func (o *Output) Rank() int { return o.rank }

// NumLocalElements returns the number of local elements numbered.
func (o *Output) NumLocalElements() int { return o.numElements }

// Configuration returns the configuration row element e was finally
// numbered under, after hanging-face promotion.
func (o *Output) Configuration(e int32) uint8 { return o.configurations[e] }

// FaceCode returns the packed face-code byte for element e: bit
// 1<<(dim+face/2) is set for every face with a hanging neighbor, and the
// low dim bits carry the child id of the small quadrant on that interface.
func (o *Output) FaceCode(e int32) uint8 { return o.faceCodes[e] }

// ElementSlots returns the node slots element e carries under its final
// configuration, in the same order slotsForConfig defines.
func (o *Output) ElementSlots(e int32) []int {
	return slotsForConfig(o.configurations[e])
}

// GlobalNodeID returns the global id assigned to element e's slot, and
// whether one was resolved. A slot can be left unresolved only when it is
// shared with a rank reachable solely through a second hop of ownership
// propagation that distributeGlobalIDs does not perform.
func (o *Output) GlobalNodeID(e int32, slot int) (int32, bool) {
	id, ok := o.globalNodeID[localKey{e, slot}]
	return id, ok
}

// GlobalNodeCount returns the total number of distinct nodes numbered
// across every rank in the run.
func (o *Output) GlobalNodeCount() int { return o.globalNodeCount }

// Timer exposes the phase timings recorded for this run.
func (o *Output) Timer() *utils.Timer { return o.timer }

// OwnedCount returns the number of nodes this rank owns.
func (o *Output) OwnedCount() int { return o.ownedCount }

// SharedCount returns the number of distinct nodes this rank shares with at
// least one peer, whether or not it owns them.
func (o *Output) SharedCount() int { return o.sharedCount }

// GlobalOffset returns the first global id this rank's owned nodes were
// assigned, i.e. its base into the prefix-summed global id space.
func (o *Output) GlobalOffset() int { return o.globalOffset }

// ConfigHistogram returns the number of local elements numbered under each
// configuration row.
func (o *Output) ConfigHistogram() map[uint8]int {
	hist := make(map[uint8]int)
	for _, c := range o.configurations {
		hist[c]++
	}
	return hist
}

// NodeIDVector returns a dense, slot-indexed vector of vnodesFull ids per
// local element, flattened in element-then-slot order: position
// e*vnodesFull+s holds the global id resolved for element e's slot s, or -1
// if slot s is either unused by e's configuration or left unresolved (see
// GlobalNodeID).
func (o *Output) NodeIDVector() []int32 {
	return append([]int32(nil), o.nodeIDVector...)
}

// NonLocalNodeIDs returns the global ids of every node this rank shares
// with a peer but does not own, in ascending local-id order.
func (o *Output) NonLocalNodeIDs() []int32 {
	return append([]int32(nil), o.nonLocalIDs...)
}

// Number runs the full conforming node-numbering algorithm for this rank's
// share of forest: it traverses forest's volumes, faces and corners into a
// node table, elects an owner for every node, exchanges local node ids with
// every peer rank that shares one, assigns a globally unique id to every
// owned node via a single Allgather-based prefix sum, and distributes those
// ids back to every rank that shares a node it doesn't own.
//
// comm must be shared by every rank participating in the same run; ranks
// must call Number in the same relative order since the underlying
// collectives are anonymous rendezvous points.
func Number(ctx context.Context, forest Forest, ghost Ghost, comm transport.Comm) (*Output, error) {
	if forest == nil || ghost == nil || comm == nil {
		return nil, errMissingInput("Number requires a non-nil forest, ghost layer and comm")
	}
	timer := utils.NewTimer("tnodes numbering")

	pt := timer.Start("traversal")
	trav := newTraversal(forest, ghost, newArena(defaultArenaBlockSize))
	links := trav.run()
	pt.Stop()

	pt = timer.Start("peer registry")
	reg := newRegistry(links, trav)
	pt.Stop()

	pt = timer.Start("exchange")
	eng := newExchangeEngine(comm, trav, reg)
	if err := eng.run(ctx); err != nil {
		return nil, err
	}
	pt.Stop()

	pt = timer.Start("global numbering")
	trav.nodes.finalize()
	owned := computeOwned(trav.nodes, forest.Rank())
	gn, err := numberGlobally(ctx, comm, owned)
	if err != nil {
		return nil, err
	}
	pt.Stop()

	pt = timer.Start("sharer distribution")
	sl := buildSharerLists(reg, forest.Rank(), trav.nodes)
	if err := distributeGlobalIDs(ctx, comm, reg, eng, gn, sl); err != nil {
		return nil, err
	}
	pt.Stop()

	numElements := forest.NumLocalElements()
	out := &Output{
		rank:            forest.Rank(),
		numElements:     numElements,
		configurations:  make([]uint8, numElements),
		faceCodes:       make([]uint8, numElements),
		globalNodeID:    make(map[localKey]int32, len(owned)),
		globalNodeCount: gn.globalTotal,
		sharers:         sl,
		timer:           timer,
		ownedCount:      len(owned),
		globalOffset:    gn.globalBase,
		nodeIDVector:    make([]int32, numElements*vnodesFull),
	}
	for i := range out.nodeIDVector {
		out.nodeIDVector[i] = -1
	}
	for e := 0; e < numElements; e++ {
		element := int32(e)
		out.configurations[e] = trav.ConfigOf(element)
		out.faceCodes[e] = trav.FaceCodeOf(element)
		row := out.nodeIDVector[e*vnodesFull : (e+1)*vnodesFull]
		for _, slot := range slotsForConfig(out.configurations[e]) {
			id := trav.localNodeIDFor(element, slot)
			globalID, ok := gn.globalIDs[id]
			if !ok {
				continue
			}
			out.globalNodeID[localKey{element, slot}] = globalID
			row[slot] = globalID
		}
	}

	shared := make(map[int]bool)
	nonLocal := make(map[int]bool)
	for _, entries := range sl.byPeer {
		for _, e := range entries {
			shared[e.localID] = true
			if e.region == regionRemote {
				nonLocal[e.localID] = true
			}
		}
	}
	out.sharedCount = len(shared)
	nonLocalIDs := make([]int, 0, len(nonLocal))
	for id := range nonLocal {
		nonLocalIDs = append(nonLocalIDs, id)
	}
	sort.Ints(nonLocalIDs)
	for _, id := range nonLocalIDs {
		if gid, ok := gn.globalIDs[id]; ok {
			out.nonLocalIDs = append(out.nonLocalIDs, gid)
		}
	}

	return out, nil
}
