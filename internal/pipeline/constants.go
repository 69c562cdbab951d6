package pipeline

// Boundary policy limits. The core packages stay limit-free; oversized
// inputs are rejected here before any work is done.
const (
	// MaxSourceRows caps the number of data rows accepted from one upload.
	MaxSourceRows = 5000
)
