package tnodes

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davknapp/tnodes/pkg/transport"
)

func TestComputeOwnedFiltersAndSortsByLocalID(t *testing.T) {
	tbl := newTable(newArena(8))
	tbl.register(2, 0, 0, 0) // owned by rank 0
	tbl.register(0, 1, 0, 0) // owned by rank 1
	tbl.register(1, 0, 1, 0) // owned by rank 0
	tbl.finalize()

	owned := computeOwned(tbl, 0)
	require.Len(t, owned, 2)
	assert.Equal(t, 1, owned[0].localID)
	assert.Equal(t, 2, owned[1].localID)
}

func TestNumberGloballyAssignsDisjointPrefixSumRanges(t *testing.T) {
	fabric := transport.NewLocalFabric(3)
	ownedCounts := []int{2, 0, 3}

	var wg sync.WaitGroup
	results := make([]*globalNumbering, 3)
	errs := make([]error, 3)
	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			var owned []ownedNode
			for i := 0; i < ownedCounts[rank]; i++ {
				owned = append(owned, ownedNode{localID: i})
			}
			gn, err := numberGlobally(context.Background(), fabric.Comm(rank), owned)
			results[rank] = gn
			errs[rank] = err
		}(r)
	}
	wg.Wait()

	for r := 0; r < 3; r++ {
		require.NoError(t, errs[r])
	}
	assert.Equal(t, 0, results[0].globalBase)
	assert.Equal(t, 2, results[1].globalBase)
	assert.Equal(t, 2, results[2].globalBase)
	assert.Equal(t, 5, results[0].globalTotal)
	assert.Equal(t, []int32{0, 1}, []int32{results[0].globalIDs[0], results[0].globalIDs[1]})
	assert.Equal(t, []int32{2, 3, 4}, []int32{results[2].globalIDs[0], results[2].globalIDs[1], results[2].globalIDs[2]})
}
