// Package tnodes assigns globally unique identifiers to the topological nodes
// produced by triangulating a 2:1 face-balanced quadtree forest, and builds the
// per-process sharing lists needed to exchange values on those nodes.
package tnodes

import "github.com/Davknapp/tnodes/pkg/collections"

// Number of element faces in two dimensions.
const numFaces = 4

// Number of element corners in two dimensions.
const numCorners = 4

// vnodesFull is the number of node slots an element carries when face nodes
// are enabled; vnodesCorners is the count when they are not.
const (
	vnodesCorners = 9
	vnodesFull    = 9 + 16
)

// Fixed slot indices. Corners occupy 0..3, the center occupies 4, and the
// four face midpoints occupy 5..8. The sixteen slots from 9..24 only exist
// when face nodes are requested.
const (
	slotCenter = 4
)

// faceMidSlot returns the slot of the plain face-midpoint node for face f.
func faceMidSlot(f int) int { return 5 + f }

// cornerOfCenterSlot returns the slot of the corner-of-center node
// associated with face f; these only exist once an element has been
// promoted to full subdivision.
func cornerOfCenterSlot(f int) int { return 9 + f }

// splitMid and hangingPair give the per-face slots used when a face is
// split by a hanging neighbor: one split-midpoint slot and two sub-face
// midpoint slots per face, laid out the way the reference triangulation
// numbers them (face 3's pair comes after its own split slot).
var splitMid = [numFaces]int{14, 17, 20, 22}
var hangingPair = [numFaces][2]int{
	{13, 15},
	{16, 18},
	{19, 21},
	{23, 24},
}

// alwaysOwnedSlots lists the slots that can only ever be produced by a
// single contributing process: the element interior. Registering one of
// these from a ghost side is a contract violation.
var alwaysOwnedSlots = func() *collections.Bitset {
	b := collections.NewBitset(vnodesFull)
	b.Set(slotCenter)
	for f := 0; f < numFaces; f++ {
		b.Set(cornerOfCenterSlot(f))
		b.Set(splitMid[f])
	}
	return b
}()

// isAlwaysOwned reports whether slot s can only be contributed locally.
func isAlwaysOwned(s int) bool {
	return alwaysOwnedSlots.Test(s)
}

// Element configuration bits, packed into a single byte per element.
const (
	cfgFaceBit0  = 1 << 0 // face 0 is hanging (1 large / 2 small)
	cfgFaceBit1  = 1 << 1
	cfgFaceBit2  = 1 << 2
	cfgFaceBit3  = 1 << 3
	cfgHalfSplit = 1 << 4 // half subdivision, not yet promoted
	cfgFullSplit = 1 << 5 // root-level full subdivision (sentinel byte 32)
	cfgHangMask  = cfgFaceBit0 | cfgFaceBit1 | cfgFaceBit2 | cfgFaceBit3
)

// configRow describes which slots a triangulation configuration uses.
type configRow struct {
	corners []int
	faces   []int
}

// configCount holds the literal (#corners, #faceSlots) pair for each of the
// eighteen closed configurations, indices 0..15 keyed by the four-bit
// hanging-face mask, 16 the half-subdivision sub-style of configuration 0,
// and 17 the pure full-subdivision sub-style.
var configCount = [18][2]int{
	{4, 5}, {6, 10}, {6, 10}, {7, 12},
	{6, 10}, {7, 12}, {7, 12}, {8, 14},
	{6, 10}, {7, 12}, {7, 12}, {8, 14},
	{7, 12}, {8, 14}, {8, 14}, {9, 16},
	{4, 5}, {5, 8},
}

// configTable is built once at package init from the hanging-face mask
// rule: a hanging face promotes its midpoint to a corner and contributes a
// split-midpoint plus two sub-face midpoints as face slots; a non-hanging
// face contributes only its plain midpoint as a face slot; any hanging face
// promotes the center to a corner and brings in the four corner-of-center
// face slots. Configurations 16 and 17 are the two sub-styles of
// configuration 0 and do not follow the mask rule.
var configTable [18]configRow

func init() {
	baseCorners := []int{0, 1, 2, 3}

	// Configuration 0: conforming, not yet subdivided.
	configTable[0] = configRow{
		corners: append([]int{}, baseCorners...),
		faces:   []int{slotCenter, faceMidSlot(0), faceMidSlot(1), faceMidSlot(2), faceMidSlot(3)},
	}

	// Configurations 1..15: one entry per nonzero four-bit hanging mask.
	for mask := 1; mask <= 15; mask++ {
		corners := append([]int{}, baseCorners...)
		corners = append(corners, slotCenter)
		var faces []int
		for f := 0; f < numFaces; f++ {
			faces = append(faces, cornerOfCenterSlot(f))
		}
		for f := 0; f < numFaces; f++ {
			if mask&(1<<f) != 0 {
				corners = append(corners, faceMidSlot(f))
				faces = append(faces, hangingPair[f][0], hangingPair[f][1], splitMid[f])
			} else {
				faces = append(faces, faceMidSlot(f))
			}
		}
		configTable[mask] = configRow{corners: corners, faces: faces}
	}

	// Configuration 16: half-subdivision sub-style, identical slot usage to
	// configuration 0 (the flag changes triangulation choice, not layout).
	configTable[16] = configTable[0]

	// Configuration 17: pure full-subdivision sub-style — every face is
	// conforming but the element is still fully split, so the center and
	// all four corner-of-center slots are present and every face keeps its
	// plain midpoint.
	corners17 := append([]int{}, baseCorners...)
	corners17 = append(corners17, slotCenter)
	faces17 := []int{}
	for f := 0; f < numFaces; f++ {
		faces17 = append(faces17, cornerOfCenterSlot(f))
	}
	for f := 0; f < numFaces; f++ {
		faces17 = append(faces17, faceMidSlot(f))
	}
	configTable[17] = configRow{corners: corners17, faces: faces17}

	for i, row := range configTable {
		if len(row.corners) != configCount[i][0] || len(row.faces) != configCount[i][1] {
			panic("tnodes: configuration table inconsistent with configCount")
		}
	}
}

// configIndex maps a packed configuration byte to a configTable row index.
func configIndex(cfg uint8) int {
	if cfg == cfgFullSplit {
		return 17
	}
	return int(cfg)
}

// slotsForConfig returns every slot in use (corners first, then faces) for
// the given configuration byte.
func slotsForConfig(cfg uint8) []int {
	row := configTable[configIndex(cfg)]
	all := make([]int, 0, len(row.corners)+len(row.faces))
	all = append(all, row.corners...)
	all = append(all, row.faces...)
	return all
}
