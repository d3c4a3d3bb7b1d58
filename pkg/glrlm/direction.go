package glrlm

// Direction is an integer voxel offset along which runs are scanned.
// Opposite offsets describe the same set of runs, so only one of each
// pair is listed.
type Direction struct {
	X, Y, Z int
}

// Directions3D lists the 13 unique scan directions of a 3D grid:
// 3 axis-aligned, 6 face diagonals and 4 body diagonals.
var Directions3D = []Direction{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 1, 0},
	{1, -1, 0},
	{1, 0, 1},
	{1, 0, -1},
	{0, 1, 1},
	{0, 1, -1},
	{1, 1, 1},
	{1, 1, -1},
	{1, -1, 1},
	{1, -1, -1},
}

// Directions2D lists the 4 unique in-plane directions used when each
// slice is scanned independently.
var Directions2D = []Direction{
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{-1, 1, 0},
}
