package ports

// EmbeddingProvider maps text onto a fixed-length vector. Implementations
// must return identical vectors for identical input within a process.
type EmbeddingProvider interface {
	Embed(text string) ([]float64, error)
	Dimension() int
}
