package tnodes

// traversal drives a Forest's Volume/Face/Corner callbacks into a node
// table, registering every slot instance it sees, deduplicating instances
// that belong to the same physical node whenever both sides are locally
// visible, and promoting an element's effective configuration whenever one
// of its faces turns out to be hanging.
type traversal struct {
	forest Forest
	ghost  Ghost
	rank   int
	nodes  *table

	// effectiveConfig[e] is Forest.Configuration(e) after promotion: any
	// element that VisitFaces reports a hanging face for is forced onto
	// the row matching its hanging-face bitmask, overriding whatever
	// half/full split flags the forest declared for it.
	effectiveConfig []uint8

	// localNodeID maps one element-local slot to the node id it has been
	// assigned so far. Instances that are later found to name the same
	// node (a conforming or hanging face, a shared corner) are folded
	// together into a single id before the table entry is built.
	localNodeID map[localKey]int
	nextID      int

	// remoteLinks records every slot instance whose matching contributor
	// lives on another rank; the peer registry resolves these into queries
	// once traversal finishes.
	remoteLinks []remoteLink

	// faceCode[e] is the packed face-code byte for element e: bit
	// 1<<(dim+face/2) is set for every hanging face, and the low dim bits
	// carry the child id of the small quadrant on a hanging interface.
	faceCode []uint8
}

// dim is the spatial dimension the triangulation is built over.
const dim = 2

// localKey identifies one slot of one local element.
type localKey struct {
	element int32
	slot    int
}

// remoteLink pairs a locally registered node with a remote element/slot
// instance the exchange engine still needs to reconcile it with.
type remoteLink struct {
	localElement int32
	localSlot    int8
	rank         int
	remoteElement int32
	remoteSlot    int8
}

func newTraversal(forest Forest, ghost Ghost, pool *arena) *traversal {
	n := forest.NumLocalElements()
	t := &traversal{
		forest:          forest,
		ghost:           ghost,
		rank:            forest.Rank(),
		nodes:           newTable(pool),
		effectiveConfig: make([]uint8, n),
		localNodeID:     make(map[localKey]int, n*4),
		faceCode:        make([]uint8, n),
	}
	for e := 0; e < n; e++ {
		t.effectiveConfig[e] = forest.Configuration(int32(e))
	}
	return t
}

// run executes the full traversal and returns the links that still need
// remote reconciliation.
func (t *traversal) run() []remoteLink {
	t.promoteConfigurations()
	t.registerVolumes()
	t.registerFaces()
	t.registerCorners()
	return t.remoteLinks
}

// ConfigOf returns the post-promotion configuration byte for element e.
func (t *traversal) ConfigOf(e int32) uint8 {
	return t.effectiveConfig[e]
}

// FaceCodeOf returns the packed face-code byte for element e.
func (t *traversal) FaceCodeOf(e int32) uint8 {
	return t.faceCode[e]
}

// Table returns the node table traversal has been populating.
func (t *traversal) Table() *table {
	return t.nodes
}

// localNodeIDFor looks up the node id assigned to a given element slot.
// Every slot that run() visited has one; calling this on a slot that was
// never visited is a contract violation.
func (t *traversal) localNodeIDFor(element int32, slot int) int {
	id, ok := t.localNodeID[localKey{element, slot}]
	if !ok {
		panic(contractViolation{"local node id requested for an unvisited slot"})
	}
	return id
}

// newLocalID allocates a fresh id for a slot that cannot be merged with
// any other local instance (an always-owned slot, a domain-boundary face,
// or a slot whose matching contributor is on a remote rank).
func (t *traversal) newLocalID(element int32, slot int) int {
	key := localKey{element, slot}
	if id, ok := t.localNodeID[key]; ok {
		return id
	}
	id := t.nextID
	t.nextID++
	t.localNodeID[key] = id
	return id
}

// promoteConfigurations forces every element with at least one hanging
// face onto the configuration row matching its hanging-face bitmask.
func (t *traversal) promoteConfigurations() {
	hangMask := make([]uint8, len(t.effectiveConfig))
	t.forest.VisitFaces(func(element int32, face int, others []FaceNeighbor) {
		// Hanging is reported symmetrically on both sides of the interface,
		// but only the large side — the one with two neighbor instances —
		// carries the extra slots a hanging face needs.
		if len(others) == 2 {
			hangMask[element] |= uint8(1 << uint(face))
		}
	})
	for e, mask := range hangMask {
		if mask != 0 {
			t.effectiveConfig[e] = mask
		}
	}
}

// registerVolumes registers every always-owned slot of every local
// element: these are exclusive to the element and never need merging.
func (t *traversal) registerVolumes() {
	t.forest.VisitVolume(func(element int32) {
		cfg := t.effectiveConfig[element]
		for _, slot := range slotsForConfig(cfg) {
			if !isAlwaysOwned(slot) {
				continue
			}
			id := t.newLocalID(element, slot)
			t.nodes.register(id, t.rank, element, int8(slot))
		}
	})
}

// faceEndpoint identifies one side of a face interface: an element, the
// face it uses, and (for a hanging interface) which small-side half it
// refers to. half is -1 for a conforming endpoint.
type faceEndpoint struct {
	element int32
	face    int
	half    int
}

func (a faceEndpoint) less(b faceEndpoint) bool {
	if a.element != b.element {
		return a.element < b.element
	}
	if a.face != b.face {
		return a.face < b.face
	}
	return a.half < b.half
}

type facePairKey struct{ a, b faceEndpoint }

func canonicalFacePair(a, b faceEndpoint) facePairKey {
	if b.less(a) {
		a, b = b, a
	}
	return facePairKey{a, b}
}

// registerFaces registers the face-midpoint (conforming or boundary) or
// split/hanging-midpoint slots of every local element face, merging
// instances that name the same interface when both sides are local.
func (t *traversal) registerFaces() {
	facePairID := make(map[facePairKey]int)
	assignPair := func(a, b faceEndpoint) int {
		key := canonicalFacePair(a, b)
		if id, ok := facePairID[key]; ok {
			return id
		}
		id := t.nextID
		t.nextID++
		facePairID[key] = id
		return id
	}

	t.forest.VisitFaces(func(element int32, face int, others []FaceNeighbor) {
		switch len(others) {
		case 0:
			slot := faceMidSlot(face)
			id := t.newLocalID(element, slot)
			t.nodes.register(id, t.rank, element, int8(slot))

		case 1:
			o := others[0]
			slot := faceMidSlot(face)
			self := faceEndpoint{element: element, face: face, half: -1}
			if o.Hanging {
				t.faceCode[element] |= uint8(1<<uint(dim+face/2)) | uint8(o.HangingHalf)
			}
			var id int
			if o.Rank == t.rank {
				half := -1
				if o.Hanging {
					half = o.HangingHalf
				}
				partner := faceEndpoint{element: o.Element, face: o.NeighborFace, half: half}
				id = assignPair(self, partner)
			} else {
				id = t.newLocalID(element, slot)
				remoteSlot := faceMidSlot(o.NeighborFace)
				if o.Hanging {
					remoteSlot = hangingPair[o.NeighborFace][o.HangingHalf]
				}
				t.remoteLinks = append(t.remoteLinks, remoteLink{
					localElement: element, localSlot: int8(slot),
					rank: o.Rank, remoteElement: o.Element, remoteSlot: int8(remoteSlot),
				})
			}
			t.localNodeID[localKey{element, slot}] = id
			t.nodes.register(id, t.rank, element, int8(slot))

		case 2:
			// The large side contributes a corner-like node at the face
			// midpoint: a real corner in the triangulation, distinct from
			// either small side's own contribution, so it always gets a
			// fresh id rather than one merged via assignPair.
			t.faceCode[element] |= uint8(1 << uint(dim+face/2))
			faceSlot := faceMidSlot(face)
			faceID := t.newLocalID(element, faceSlot)
			t.nodes.register(faceID, t.rank, element, int8(faceSlot))

			for half, o := range others {
				slot := hangingPair[face][half]
				self := faceEndpoint{element: element, face: face, half: half}
				var id int
				if o.Rank == t.rank {
					partner := faceEndpoint{element: o.Element, face: o.NeighborFace, half: -1}
					id = assignPair(self, partner)
				} else {
					id = t.newLocalID(element, slot)
					t.remoteLinks = append(t.remoteLinks, remoteLink{
						localElement: element, localSlot: int8(slot),
						rank: o.Rank, remoteElement: o.Element, remoteSlot: int8(faceMidSlot(o.NeighborFace)),
					})
				}
				t.localNodeID[localKey{element, slot}] = id
				t.nodes.register(id, t.rank, element, int8(slot))
			}

		default:
			panic(contractViolation{"face has more than two neighbor instances"})
		}
	})
}

// cornerUnionFind merges element-corner instances known to be the same
// physical node via union by pointer, path-compressed on find.
type cornerUnionFind struct {
	parent map[localKey]localKey
}

func newCornerUnionFind() *cornerUnionFind {
	return &cornerUnionFind{parent: make(map[localKey]localKey)}
}

func (u *cornerUnionFind) find(k localKey) localKey {
	p, ok := u.parent[k]
	if !ok {
		u.parent[k] = k
		return k
	}
	if p == k {
		return k
	}
	root := u.find(p)
	u.parent[k] = root
	return root
}

func (u *cornerUnionFind) union(a, b localKey) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// registerCorners registers the corner slot of every local element
// corner, merging instances that share a corner with another local
// element via a union-find over (element, corner) keys, and recording a
// remote link for every neighbor instance owned by another rank.
func (t *traversal) registerCorners() {
	uf := newCornerUnionFind()
	type pendingRemote struct {
		self localKey
		rl   remoteLink
	}
	var pending []pendingRemote

	t.forest.VisitCorners(func(element int32, corner int, others []CornerNeighbor) {
		self := localKey{element, corner}
		uf.find(self)
		for _, o := range others {
			if o.Rank == t.rank {
				uf.union(self, localKey{o.Element, o.Corner})
			} else {
				pending = append(pending, pendingRemote{
					self: self,
					rl: remoteLink{
						localElement: element, localSlot: int8(corner),
						rank: o.Rank, remoteElement: o.Element, remoteSlot: int8(o.Corner),
					},
				})
			}
		}
	})

	rootID := make(map[localKey]int)
	t.forest.VisitCorners(func(element int32, corner int, others []CornerNeighbor) {
		self := localKey{element, corner}
		root := uf.find(self)
		id, ok := rootID[root]
		if !ok {
			id = t.nextID
			t.nextID++
			rootID[root] = id
		}
		t.localNodeID[self] = id
		t.nodes.register(id, t.rank, element, int8(corner))
	})

	for _, p := range pending {
		t.remoteLinks = append(t.remoteLinks, p.rl)
	}
}
