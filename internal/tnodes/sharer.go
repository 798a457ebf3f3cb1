package tnodes

import (
	"context"

	"github.com/Davknapp/tnodes/pkg/transport"
)

// sharerRegion identifies whether a shared node is owned by this rank or
// by the peer it is listed against.
type sharerRegion int

const (
	regionOwned sharerRegion = iota
	regionRemote
)

// sharerEntry is one line of a per-peer sharer list.
type sharerEntry struct {
	localID  int
	region   sharerRegion
	ownerRank int // meaningful only when region == regionRemote
	globalID int32
}

// sharerLists groups every shared node this rank participates in by peer
// rank, split into the region it owns and the region it doesn't.
//
// This only resolves nodes whose owner is directly reachable through a
// peer link established by forest connectivity (the common case for a
// 2:1 balanced mesh's face and corner neighbors). A corner touched by
// three or more ranks where not every pair is mutually ghost-visible
// would need a second hop of propagation that this reference
// implementation does not perform.
type sharerLists struct {
	byPeer map[int][]sharerEntry
}

// buildSharerLists classifies each node this rank shares with a peer by
// ownership, using the node table's already-elected owner.
func buildSharerLists(reg *registry, rank int, tbl *table) *sharerLists {
	sl := &sharerLists{byPeer: make(map[int][]sharerEntry)}
	for _, peerRank := range reg.order {
		p := reg.peers[peerRank]
		for _, l := range p.links {
			n := tbl.get(l.localID)
			entry := sharerEntry{localID: l.localID}
			if n.IsOwnedBy(rank) {
				entry.region = regionOwned
			} else {
				entry.region = regionRemote
				entry.ownerRank = n.OwnerRank()
			}
			sl.byPeer[peerRank] = append(sl.byPeer[peerRank], entry)
		}
	}
	return sl
}

// distributeGlobalIDs sends every owned shared node's global id to the
// peers that also touch it, and receives the global id of every shared
// node this rank does not own but whose owner is a direct peer,
// completing gn.globalIDs for every node reachable this way.
func distributeGlobalIDs(ctx context.Context, comm transport.Comm, reg *registry, eng *exchangeEngine, gn *globalNumbering, sl *sharerLists) error {
	const tagGlobalID = transport.Tag(100)

	type inflight struct {
		peerRank int
		req      transport.Request
	}
	var pending []inflight

	for _, peerRank := range reg.order {
		payload := make([]int32, 0)
		remoteCount := 0
		for _, e := range sl.byPeer[peerRank] {
			switch {
			case e.region == regionOwned:
				cr := eng.correlated[e.localID]
				if cr == nil {
					continue
				}
				peerLocalID, ok := cr.peerLocalID[peerRank]
				if !ok {
					continue
				}
				payload = append(payload, int32(peerLocalID), gn.globalIDs[e.localID])
			case e.region == regionRemote && e.ownerRank == peerRank:
				remoteCount++
			}
		}

		if _, err := comm.Isend(ctx, peerRank, tagGlobalID, payload); err != nil {
			return errTransport(err)
		}
		if remoteCount > 0 {
			req, err := comm.Irecv(ctx, peerRank, tagGlobalID, remoteCount*2)
			if err != nil {
				return errTransport(err)
			}
			pending = append(pending, inflight{peerRank: peerRank, req: req})
		}
	}

	done := make([]bool, len(pending))
	remaining := len(pending)
	for remaining > 0 {
		reqs := make([]transport.Request, len(pending))
		for i, p := range pending {
			reqs[i] = p.req
		}
		idxs, err := comm.Waitsome(ctx, reqs)
		if err != nil {
			return errTransport(err)
		}
		for _, idx := range idxs {
			if done[idx] {
				continue
			}
			done[idx] = true
			remaining--
			payload := pending[idx].req.Result()
			for i := 0; i+1 < len(payload); i += 2 {
				gn.globalIDs[int(payload[i])] = payload[i+1]
			}
		}
	}
	return nil
}
