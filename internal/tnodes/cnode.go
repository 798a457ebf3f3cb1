package tnodes

import "sort"

// contributor identifies one element-local instance of a node: the process
// that saw it, the local element index within that process, and the slot
// within the element.
type contributor struct {
	rank    int
	element int32
	slot    int8
}

// less orders contributors by (rank, element, slot), the tie-break used
// everywhere an owner must be elected deterministically.
func (c contributor) less(o contributor) bool {
	if c.rank != o.rank {
		return c.rank < o.rank
	}
	if c.element != o.element {
		return c.element < o.element
	}
	return c.slot < o.slot
}

// cnode is a node under construction: every element-local instance
// identified, locally or by a remote peer, as referring to the same mesh
// node, together with the index of the elected owner among them.
//
// The owner index is re-derived by electOwner after every mutation. Code
// must never retain a *contributor into this slice across a call to
// addContributor: append can move the backing array, and a stale pointer
// would silently read garbage.
type cnode struct {
	contributors []contributor
	owner        int
}

// newCnode returns a node under construction with no contributors yet.
func newCnode() *cnode {
	return &cnode{owner: -1}
}

// addContributor records one more element-local instance of this node and
// re-elects the owner.
func (c *cnode) addContributor(rank int, element int32, slot int8) {
	c.contributors = append(c.contributors, contributor{rank: rank, element: element, slot: slot})
	c.electOwner()
}

// electOwner scans every contributor and records the index of the
// lexicographically smallest (rank, element, slot) tuple. This is always a
// full rescan rather than an incremental update, since reallocation on
// append would otherwise invalidate a cached index silently.
func (c *cnode) electOwner() {
	if len(c.contributors) == 0 {
		c.owner = -1
		return
	}
	best := 0
	for i := 1; i < len(c.contributors); i++ {
		if c.contributors[i].less(c.contributors[best]) {
			best = i
		}
	}
	c.owner = best
}

// sortContributors orders the contributor list canonically. Called once a
// node's contributor set is final, before it is published to peers, so
// that sharer lists are built in a deterministic order.
func (c *cnode) sortContributors() {
	sort.Slice(c.contributors, func(i, j int) bool {
		return c.contributors[i].less(c.contributors[j])
	})
	c.electOwner()
}

// Owner returns the elected owner contributor. A cnode with no
// contributors is a contract violation: the table never creates one except
// in response to a registration.
func (c *cnode) Owner() contributor {
	if c.owner < 0 {
		panic(contractViolation{"cnode has no contributors"})
	}
	return c.contributors[c.owner]
}

// OwnerRank reports the rank that owns this node.
func (c *cnode) OwnerRank() int {
	return c.Owner().rank
}

// IsOwnedBy reports whether rank owns this node.
func (c *cnode) IsOwnedBy(rank int) bool {
	return len(c.contributors) > 0 && c.Owner().rank == rank
}

// NumContributors reports how many element-local instances contribute to
// this node so far.
func (c *cnode) NumContributors() int {
	return len(c.contributors)
}

// arena amortizes cnode allocation across a numbering run using
// fixed-size, pointer-stable blocks: the same block-allocation idea
// collections.SlicePool uses to cut per-item allocator overhead, adapted
// here because cnode pointers must stay valid for the run's lifetime
// rather than being returned to a pool after each use.
type arena struct {
	blockSize int
	blocks    [][]cnode
	next      int
}

// newArena creates an arena that hands out cnodes in blocks of blockSize.
func newArena(blockSize int) *arena {
	if blockSize <= 0 {
		blockSize = 256
	}
	return &arena{blockSize: blockSize}
}

// getCnode returns a freshly zeroed cnode backed by the arena's current
// block, allocating a new block when the current one is exhausted.
func (a *arena) getCnode() *cnode {
	if len(a.blocks) == 0 || a.next == len(a.blocks[len(a.blocks)-1]) {
		a.blocks = append(a.blocks, make([]cnode, a.blockSize))
		a.next = 0
	}
	block := a.blocks[len(a.blocks)-1]
	n := &block[a.next]
	n.owner = -1
	a.next++
	return n
}

// table owns every node under construction for one numbering run, indexed
// by the local node id the traversal adapter assigns on first sight of a
// node.
type table struct {
	nodes []*cnode
	pool  *arena
}

// newTable creates a node table backed by the given arena.
func newTable(pool *arena) *table {
	return &table{pool: pool}
}

// register records that local node id appears at (rank, element, slot),
// allocating a cnode from the arena on first sight of id and growing the
// table to fit.
func (t *table) register(id int, rank int, element int32, slot int8) *cnode {
	for len(t.nodes) <= id {
		t.nodes = append(t.nodes, nil)
	}
	if t.nodes[id] == nil {
		t.nodes[id] = t.pool.getCnode()
	}
	n := t.nodes[id]
	n.addContributor(rank, element, slot)
	return n
}

// get returns the node under construction for local id, or nil if id has
// never been registered.
func (t *table) get(id int) *cnode {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// len reports how many local node ids this table has ever seen.
func (t *table) len() int {
	return len(t.nodes)
}

// finalize sorts every node's contributor list, making owner election
// (and hence sharer assembly) deterministic regardless of registration
// order.
func (t *table) finalize() {
	for _, n := range t.nodes {
		if n != nil {
			n.sortContributors()
		}
	}
}
