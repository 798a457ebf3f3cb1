// Package testutil provides utilities for testing.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Davknapp/tnodes/internal/tnodes"
)

// Chain face/corner indices, matching the p4est convention used throughout
// internal/tnodes: 0=-x, 1=+x, 2=-y, 3=+y for faces and
// 0=(-x,-y), 1=(+x,-y), 2=(-x,+y), 3=(+x,+y) for corners.
const (
	faceMinusX = 0
	facePlusX  = 1
	cornerMinusXMinusY = 0
	cornerPlusXMinusY  = 1
	cornerMinusXPlusY  = 2
	cornerPlusXPlusY   = 3
)

// ChainFixture is a deterministic 1-D chain of conforming quad elements
// spread across a number of ranks, joined face-to-face along +x/-x and
// sharing corners at the joints. It has no hanging faces, so every element
// uses configuration 0. It exists to drive tests and the tnodesctl simulate
// command without requiring a real adaptive-refinement engine, which is out
// of scope for this package.
type ChainFixture struct {
	Forests []*tnodes.MemForest
	Ghosts  []*tnodes.MemGhost
}

// BuildChainFixture builds a chain of numRanks*elementsPerRank elements,
// elementsPerRank of them owned by each rank, connected in a single row.
// Adjoining ranks share one ghost element each to carry the cross-rank face
// and corner links.
func BuildChainFixture(numRanks, elementsPerRank int) *ChainFixture {
	total := numRanks * elementsPerRank
	forests := make([]*tnodes.MemForest, numRanks)
	ghosts := make([]*tnodes.MemGhost, numRanks)

	for r := 0; r < numRanks; r++ {
		forests[r] = tnodes.NewMemForest(r, numRanks)
		ghosts[r] = tnodes.NewMemGhost()
	}

	for r := 0; r < numRanks; r++ {
		f := forests[r]
		for i := 0; i < elementsPerRank; i++ {
			f.AddElement(0)
		}

		for i := int32(0); i < int32(elementsPerRank); i++ {
			globalIdx := r*elementsPerRank + int(i)

			if i > 0 {
				f.SetFace(i, faceMinusX, tnodes.FaceNeighbor{Rank: r, Element: i - 1, NeighborFace: facePlusX})
				f.AddCorner(i, cornerMinusXMinusY, tnodes.CornerNeighbor{Rank: r, Element: i - 1, Corner: cornerPlusXMinusY})
				f.AddCorner(i, cornerMinusXPlusY, tnodes.CornerNeighbor{Rank: r, Element: i - 1, Corner: cornerPlusXPlusY})
			} else if globalIdx > 0 {
				peerRank := r - 1
				peerLast := int32(elementsPerRank - 1)
				ghosts[r].Add(peerRank, 0)
				f.SetFace(i, faceMinusX, tnodes.FaceNeighbor{Rank: peerRank, Element: peerLast, NeighborFace: facePlusX})
				f.AddCorner(i, cornerMinusXMinusY, tnodes.CornerNeighbor{Rank: peerRank, Element: peerLast, Corner: cornerPlusXMinusY})
				f.AddCorner(i, cornerMinusXPlusY, tnodes.CornerNeighbor{Rank: peerRank, Element: peerLast, Corner: cornerPlusXPlusY})
			}

			if i < int32(elementsPerRank)-1 {
				f.SetFace(i, facePlusX, tnodes.FaceNeighbor{Rank: r, Element: i + 1, NeighborFace: faceMinusX})
			} else if globalIdx < total-1 {
				peerRank := r + 1
				ghosts[r].Add(peerRank, 0)
				f.SetFace(i, facePlusX, tnodes.FaceNeighbor{Rank: peerRank, Element: 0, NeighborFace: faceMinusX})
			}
		}
	}

	return &ChainFixture{Forests: forests, Ghosts: ghosts}
}

// TempDir creates a temporary directory for testing and returns its path.
// The directory is automatically cleaned up when the test completes.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "tnodes-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// TempFile creates a temporary file with the given content and returns its path.
// The file is automatically cleaned up when the test completes.
func TempFile(t *testing.T, content string) string {
	t.Helper()
	dir := TempDir(t)
	path := filepath.Join(dir, "temp_file")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// TempFileWithName creates a temporary file with the given name and content.
func TempFileWithName(t *testing.T, name, content string) string {
	t.Helper()
	dir := TempDir(t)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// WriteFile writes content to a file in the given directory.
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// CreateDir creates a directory within the given parent directory.
func CreateDir(t *testing.T, parent, name string) string {
	t.Helper()
	path := filepath.Join(parent, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}
