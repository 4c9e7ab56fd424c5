package format

// Slot returns the canonical index of sub-cell (x, y, z), each in [0, 4).
// x varies fastest, then y, then z.
func Slot(x, y, z int) int {
	return x + Branching*y + Branching*Branching*z
}

// SlotCoords is the inverse of Slot.
func SlotCoords(slot int) (x, y, z int) {
	return slot % Branching, (slot / Branching) % Branching, slot / (Branching * Branching)
}

// CellSize returns the edge length in voxels of a node at level (4^level).
// Level 0 is a single voxel.
func CellSize(level int) int64 {
	return int64(1) << (2 * uint(level))
}

// LevelsFor returns the smallest level >= 1 whose cell covers extent voxels.
func LevelsFor(extent int64) int {
	level := 1
	for CellSize(level) < extent {
		level++
	}
	return level
}
