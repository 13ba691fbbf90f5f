package database

// Store layout.
const (
	// DefaultDim is the descriptor length produced by the dlib ResNet face model.
	DefaultDim = 128

	// DefaultTolerance is the maximum Euclidean distance at which two descriptors
	// are considered the same person.
	DefaultTolerance = 0.6

	filePrefix = "face_"
	vectorExt  = ".vec"
	labelsFile = "labels.yaml"
	tempPrefix = ".face-"

	// maxAppendAttempts bounds how many IDs Append tries when another writer
	// claimed the next one first.
	maxAppendAttempts = 16
)

// HNSW index parameters for 128-dim face descriptors
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 64

	// HNSWSearchK is how many candidates a nearest match asks the index for
	// before applying the tolerance.
	HNSWSearchK = 8
)
