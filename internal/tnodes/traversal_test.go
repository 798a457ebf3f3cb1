package tnodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTraversal(t *testing.T, forest Forest, ghost Ghost) *traversal {
	t.Helper()
	trav := newTraversal(forest, ghost, newArena(16))
	trav.run()
	return trav
}

func TestRegisterVolumesSingleConformingElement(t *testing.T) {
	f := NewMemForest(0, 1)
	f.AddElement(0)
	trav := newTestTraversal(t, f, NewMemGhost())

	// Nothing is shared, so every one of the nine configuration-0 slots
	// gets its own distinct node id.
	ids := make(map[int]bool)
	for _, slot := range slotsForConfig(0) {
		ids[trav.localNodeIDFor(0, slot)] = true
	}
	assert.Len(t, ids, 9)
}

func TestConformingFaceDedupesAcrossLocalElements(t *testing.T) {
	f := NewMemForest(0, 1)
	a := f.AddElement(0)
	b := f.AddElement(0)
	f.SetFace(a, 1, FaceNeighbor{Rank: 0, Element: b, NeighborFace: 3})
	f.SetFace(b, 3, FaceNeighbor{Rank: 0, Element: a, NeighborFace: 1})
	trav := newTestTraversal(t, f, NewMemGhost())

	idA := trav.localNodeIDFor(a, faceMidSlot(1))
	idB := trav.localNodeIDFor(b, faceMidSlot(3))
	assert.Equal(t, idA, idB)

	n := trav.nodes.get(idA)
	require.Equal(t, 2, n.NumContributors())
	assert.True(t, n.IsOwnedBy(0))
}

func TestHangingFacePromotesLargeSideOnly(t *testing.T) {
	f := NewMemForest(0, 1)
	large := f.AddElement(0)
	s0 := f.AddElement(0)
	s1 := f.AddElement(0)
	f.SetFace(large, 0,
		FaceNeighbor{Rank: 0, Element: s0, NeighborFace: 2, Hanging: true, HangingHalf: 0},
		FaceNeighbor{Rank: 0, Element: s1, NeighborFace: 2, Hanging: true, HangingHalf: 1},
	)
	f.SetFace(s0, 2, FaceNeighbor{Rank: 0, Element: large, NeighborFace: 0, Hanging: true, HangingHalf: 0})
	f.SetFace(s1, 2, FaceNeighbor{Rank: 0, Element: large, NeighborFace: 0, Hanging: true, HangingHalf: 1})

	trav := newTestTraversal(t, f, NewMemGhost())

	assert.Equal(t, uint8(cfgFaceBit0), trav.ConfigOf(large))
	assert.Equal(t, uint8(0), trav.ConfigOf(s0))
	assert.Equal(t, uint8(0), trav.ConfigOf(s1))

	idHalf0 := trav.localNodeIDFor(large, hangingPair[0][0])
	idHalf1 := trav.localNodeIDFor(large, hangingPair[0][1])
	assert.Equal(t, idHalf0, trav.localNodeIDFor(s0, faceMidSlot(2)))
	assert.Equal(t, idHalf1, trav.localNodeIDFor(s1, faceMidSlot(2)))
	assert.NotEqual(t, idHalf0, idHalf1)
}

func TestBoundaryFaceGetsItsOwnNode(t *testing.T) {
	f := NewMemForest(0, 1)
	f.AddElement(0)
	trav := newTestTraversal(t, f, NewMemGhost())
	id := trav.localNodeIDFor(0, faceMidSlot(0))
	n := trav.nodes.get(id)
	assert.Equal(t, 1, n.NumContributors())
}

func TestCornerUnionMergesTransitively(t *testing.T) {
	f := NewMemForest(0, 1)
	e0 := f.AddElement(0)
	e1 := f.AddElement(0)
	e2 := f.AddElement(0)
	f.AddCorner(e0, 1, CornerNeighbor{Rank: 0, Element: e1, Corner: 0})
	f.AddCorner(e1, 0, CornerNeighbor{Rank: 0, Element: e0, Corner: 1})
	f.AddCorner(e1, 0, CornerNeighbor{Rank: 0, Element: e2, Corner: 3})
	f.AddCorner(e2, 3, CornerNeighbor{Rank: 0, Element: e1, Corner: 0})

	trav := newTestTraversal(t, f, NewMemGhost())
	id0 := trav.localNodeIDFor(e0, 1)
	id1 := trav.localNodeIDFor(e1, 0)
	id2 := trav.localNodeIDFor(e2, 3)
	assert.Equal(t, id0, id1)
	assert.Equal(t, id1, id2)

	n := trav.nodes.get(id0)
	assert.Equal(t, 3, n.NumContributors())
}

func TestUnsharedCornerStillGetsANode(t *testing.T) {
	f := NewMemForest(0, 1)
	f.AddElement(0)
	trav := newTestTraversal(t, f, NewMemGhost())
	id := trav.localNodeIDFor(0, 2)
	n := trav.nodes.get(id)
	assert.Equal(t, 1, n.NumContributors())
}

func TestRemoteFaceNeighborRecordsRemoteLink(t *testing.T) {
	f := NewMemForest(0, 2)
	a := f.AddElement(0)
	f.SetFace(a, 2, FaceNeighbor{Rank: 1, Element: 7, NeighborFace: 0})

	trav := newTraversal(f, NewMemGhost(), newArena(16))
	links := trav.run()

	require.Len(t, links, 1)
	assert.Equal(t, a, links[0].localElement)
	assert.Equal(t, int8(faceMidSlot(2)), links[0].localSlot)
	assert.Equal(t, 1, links[0].rank)
	assert.Equal(t, int32(7), links[0].remoteElement)
	assert.Equal(t, int8(faceMidSlot(0)), links[0].remoteSlot)
}

func TestRemoteCornerNeighborRecordsRemoteLink(t *testing.T) {
	f := NewMemForest(0, 2)
	a := f.AddElement(0)
	f.AddCorner(a, 0, CornerNeighbor{Rank: 1, Element: 3, Corner: 2})

	trav := newTraversal(f, NewMemGhost(), newArena(16))
	links := trav.run()

	require.Len(t, links, 1)
	assert.Equal(t, a, links[0].localElement)
	assert.Equal(t, int8(0), links[0].localSlot)
	assert.Equal(t, 1, links[0].rank)
	assert.Equal(t, int32(3), links[0].remoteElement)
	assert.Equal(t, int8(2), links[0].remoteSlot)
}
