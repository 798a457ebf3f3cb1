package tnodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSharerListsClassifiesByOwnership(t *testing.T) {
	tbl := newTable(newArena(8))
	// node 0: shared with rank 0, which wins the election (lowest rank).
	tbl.register(0, 1, 0, 5)
	tbl.register(0, 0, 2, 1)
	// node 1: shared with rank 2, but rank 1 (us) wins the election.
	tbl.register(1, 1, 0, 6)
	tbl.register(1, 2, 3, 0)
	tbl.finalize()

	reg := &registry{
		peers: map[int]*peer{
			0: {rank: 0, links: []peerLink{{localID: 0, peerElement: 2, peerSlot: 1}}},
			2: {rank: 2, links: []peerLink{{localID: 1, peerElement: 3, peerSlot: 0}}},
		},
		order: []int{0, 2},
	}

	sl := buildSharerLists(reg, 1, tbl)

	require.Len(t, sl.byPeer[0], 1)
	assert.Equal(t, regionRemote, sl.byPeer[0][0].region)
	assert.Equal(t, 0, sl.byPeer[0][0].ownerRank)

	require.Len(t, sl.byPeer[2], 1)
	assert.Equal(t, regionOwned, sl.byPeer[2][0].region)
}
