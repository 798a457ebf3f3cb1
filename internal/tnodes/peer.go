package tnodes

import "sort"

// peerExchangeState is this rank's progress exchanging node-identity
// information with one remote rank.
type peerExchangeState int

const (
	// peerQuerying: our query has been sent, the peer's has not arrived.
	peerQuerying peerExchangeState = iota
	// peerAnswering: the peer's query arrived and we are building a reply.
	peerAnswering
	// peerReplied: our reply has been sent; our own query may still be
	// outstanding.
	peerReplied
	// peerDone: both directions of the query/reply round trip with this
	// peer have completed.
	peerDone
)

// peerLink records one shared node known to involve a specific peer rank:
// our local node id, and the (element, slot) on the peer's side that the
// forest connectivity says names the same physical node.
type peerLink struct {
	localID     int
	peerElement int32
	peerSlot    int8
}

// peer tracks one remote rank's shared nodes and exchange progress.
type peer struct {
	rank  int
	links []peerLink
	state peerExchangeState
}

// registry groups every remote link traversal produced by peer rank, and
// immediately records each remote contributor into its local cnode: the
// (rank, element, slot) triple is already fully known from forest
// connectivity, so owner election does not need to wait on a round trip.
// The round trip the exchange engine runs afterward only needs to
// correlate each side's local node id for the same node.
type registry struct {
	peers map[int]*peer
	order []int
}

func newRegistry(links []remoteLink, trav *traversal) *registry {
	reg := &registry{peers: make(map[int]*peer)}
	for _, rl := range links {
		if isAlwaysOwned(int(rl.remoteSlot)) {
			panic(contractViolation{"ghost element claimed an always-owned slot"})
		}
		p, ok := reg.peers[rl.rank]
		if !ok {
			p = &peer{rank: rl.rank, state: peerQuerying}
			reg.peers[rl.rank] = p
			reg.order = append(reg.order, rl.rank)
		}
		id := trav.localNodeIDFor(rl.localElement, int(rl.localSlot))
		p.links = append(p.links, peerLink{localID: id, peerElement: rl.remoteElement, peerSlot: rl.remoteSlot})

		n := trav.nodes.get(id)
		n.addContributor(rl.rank, rl.remoteElement, rl.remoteSlot)
	}
	sort.Ints(reg.order)
	return reg
}
