package tnodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigTableMatchesLiteralCounts(t *testing.T) {
	for i, want := range configCount {
		row := configTable[i]
		assert.Lenf(t, row.corners, want[0], "row %d corners", i)
		assert.Lenf(t, row.faces, want[1], "row %d faces", i)
	}
}

func TestConfigIndexMapsFullSplitSentinel(t *testing.T) {
	assert.Equal(t, 17, configIndex(cfgFullSplit))
	assert.Equal(t, 16, configIndex(cfgHalfSplit))
	assert.Equal(t, 0, configIndex(0))
	assert.Equal(t, 5, configIndex(5))
}

func TestSlotsForConfigConformingRow(t *testing.T) {
	slots := slotsForConfig(0)
	require.Len(t, slots, 9)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, slotCenter, faceMidSlot(0), faceMidSlot(1), faceMidSlot(2), faceMidSlot(3)}, slots)
}

func TestSlotsForConfigSingleHangingFace(t *testing.T) {
	slots := slotsForConfig(cfgFaceBit0)
	require.Len(t, slots, 6+10)
	assert.Contains(t, slots, faceMidSlot(0))
	assert.Contains(t, slots, hangingPair[0][0])
	assert.Contains(t, slots, hangingPair[0][1])
	assert.Contains(t, slots, splitMid[0])
	assert.Contains(t, slots, cornerOfCenterSlot(1))
	assert.NotContains(t, slots, splitMid[1])
}

func TestAlwaysOwnedSlots(t *testing.T) {
	assert.True(t, isAlwaysOwned(slotCenter))
	for f := 0; f < numFaces; f++ {
		assert.True(t, isAlwaysOwned(cornerOfCenterSlot(f)))
		assert.True(t, isAlwaysOwned(splitMid[f]))
	}
	assert.False(t, isAlwaysOwned(0))
	assert.False(t, isAlwaysOwned(faceMidSlot(0)))
}
