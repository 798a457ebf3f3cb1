package tnodes

import (
	"context"
	"fmt"

	"github.com/Davknapp/tnodes/pkg/transport"
)

// crossRank records, for one of this rank's local node ids, every peer
// rank's own local node id for the same physical node.
type crossRank struct {
	peerLocalID map[int]int
}

// exchangeEngine runs the non-blocking query/reply protocol that
// correlates this rank's local node ids with each peer's local node ids
// for the nodes they share, driven entirely through transport.Comm's
// Isend/Irecv/Waitsome so it has no knowledge of whether the fabric below
// it is in-process or networked.
//
// Each peer relationship moves through four states: peerQuerying (our
// query sent, theirs not yet arrived), peerAnswering (theirs arrived, we
// are building our reply), peerReplied (our reply sent, our own query
// reply may still be outstanding), and peerDone (both directions
// settled).
type exchangeEngine struct {
	comm       transport.Comm
	trav       *traversal
	reg        *registry
	correlated map[int]*crossRank
}

func newExchangeEngine(comm transport.Comm, trav *traversal, reg *registry) *exchangeEngine {
	return &exchangeEngine{
		comm:       comm,
		trav:       trav,
		reg:        reg,
		correlated: make(map[int]*crossRank),
	}
}

// run drives every peer relationship from peerQuerying to peerDone.
func (e *exchangeEngine) run(ctx context.Context) error {
	order := e.reg.order
	n := len(order)
	if n == 0 {
		return nil
	}

	type entry struct {
		rank int
		req  transport.Request
	}

	// Phase 1: send our query to every peer and listen for theirs.
	queryRecv := make([]entry, n)
	for i, rank := range order {
		p := e.reg.peers[rank]
		payload := make([]int32, 0, len(p.links)*3)
		for _, l := range p.links {
			payload = append(payload, l.peerElement, int32(l.peerSlot), int32(l.localID))
		}
		if _, err := e.comm.Isend(ctx, rank, transport.TagQuery, payload); err != nil {
			return errTransport(err)
		}
		rreq, err := e.comm.Irecv(ctx, rank, transport.TagQuery, len(p.links)*3)
		if err != nil {
			return errTransport(err)
		}
		queryRecv[i] = entry{rank: rank, req: rreq}
	}

	answered := make([]bool, n)
	remaining := n
	for remaining > 0 {
		reqs := make([]transport.Request, n)
		for i := range queryRecv {
			reqs[i] = queryRecv[i].req
		}
		done, err := e.comm.Waitsome(ctx, reqs)
		if err != nil {
			return errTransport(err)
		}
		for _, idx := range done {
			if answered[idx] {
				continue
			}
			answered[idx] = true
			remaining--
			rank := queryRecv[idx].rank
			e.reg.peers[rank].state = peerAnswering
			if err := e.answerQuery(ctx, rank, queryRecv[idx].req.Result()); err != nil {
				return err
			}
			e.reg.peers[rank].state = peerReplied
		}
	}

	// Phase 2: collect the reply to our own query from every peer.
	replyRecv := make([]entry, n)
	for i, rank := range order {
		p := e.reg.peers[rank]
		rreq, err := e.comm.Irecv(ctx, rank, transport.TagReply, len(p.links)*3)
		if err != nil {
			return errTransport(err)
		}
		replyRecv[i] = entry{rank: rank, req: rreq}
	}

	received := make([]bool, n)
	remaining = n
	for remaining > 0 {
		reqs := make([]transport.Request, n)
		for i := range replyRecv {
			reqs[i] = replyRecv[i].req
		}
		done, err := e.comm.Waitsome(ctx, reqs)
		if err != nil {
			return errTransport(err)
		}
		for _, idx := range done {
			if received[idx] {
				continue
			}
			received[idx] = true
			remaining--
			rank := replyRecv[idx].rank
			e.recordReply(rank, replyRecv[idx].req.Result())
			e.reg.peers[rank].state = peerDone
		}
	}

	return nil
}

// answerQuery processes an incoming query — triples of (ourElement,
// ourSlot, theirLocalID) from the asker's perspective, where
// ourElement/ourSlot address our own element/slot — and immediately sends
// back our local node id for each one.
func (e *exchangeEngine) answerQuery(ctx context.Context, rank int, payload []int32) error {
	reply := make([]int32, 0, len(payload))
	for i := 0; i+2 < len(payload); i += 3 {
		ourElement := payload[i]
		ourSlot := int8(payload[i+1])
		ourLocalID := e.trav.localNodeIDFor(ourElement, int(ourSlot))
		reply = append(reply, ourElement, int32(ourSlot), int32(ourLocalID))
	}
	if _, err := e.comm.Isend(ctx, rank, transport.TagReply, reply); err != nil {
		return errTransport(fmt.Errorf("sending reply to rank %d: %w", rank, err))
	}
	return nil
}

// recordReply matches a reply payload back to our own links by (element,
// slot) and records the peer's local id for each shared node.
func (e *exchangeEngine) recordReply(rank int, payload []int32) {
	p := e.reg.peers[rank]
	byKey := make(map[localKey]int32, len(p.links))
	for i := 0; i+2 < len(payload); i += 3 {
		byKey[localKey{payload[i], int(payload[i+1])}] = payload[i+2]
	}
	for _, l := range p.links {
		peerLocalID, ok := byKey[localKey{l.peerElement, int(l.peerSlot)}]
		if !ok {
			continue
		}
		cr, ok := e.correlated[l.localID]
		if !ok {
			cr = &crossRank{peerLocalID: make(map[int]int)}
			e.correlated[l.localID] = cr
		}
		cr.peerLocalID[rank] = int(peerLocalID)
	}
}
