package embedding

import (
	"crypto/md5"
	"encoding/binary"
	"regexp"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DefaultDimension is the hashing embedder's vector length
const DefaultDimension = 256

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// HashingEmbedder is a dependency-free embedder: each lowercased token is
// md5-hashed onto one signed bucket and the vector is L2-normalized.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates an embedder with the given dimension
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashingEmbedder{dim: dim}
}

// Dimension returns the vector length
func (h *HashingEmbedder) Dimension() int {
	return h.dim
}

// Embed never fails; text without tokens maps to the zero vector.
func (h *HashingEmbedder) Embed(text string) ([]float64, error) {
	vec := make([]float64, h.dim)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		sum := md5.Sum([]byte(tok))
		idx := binary.BigEndian.Uint32(sum[:4]) % uint32(h.dim)
		if sum[4]&1 == 1 {
			vec[idx]++
		} else {
			vec[idx]--
		}
	}

	norm := floats.Norm(vec, 2)
	if norm == 0 {
		return vec, nil
	}
	floats.Scale(1/norm, vec)
	return vec, nil
}
