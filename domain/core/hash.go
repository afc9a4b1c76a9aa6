package core

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough for log lines.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Domain-specific hash types
type (
	DatasetHash Hash
	QueryHash   Hash
)

// NewDatasetHash fingerprints uploaded file content.
func NewDatasetHash(content []byte) DatasetHash { return DatasetHash(NewHash(content)) }

// NewQueryHash fingerprints a query after trimming and lowercasing, so
// "Top 5 by Revenue " and "top 5 by revenue" share a cache entry.
func NewQueryHash(query string) QueryHash {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return QueryHash(hex.EncodeToString(sum[:]))
}

func (h DatasetHash) String() string { return Hash(h).String() }
func (h DatasetHash) Short() string { return Hash(h).Short() }
func (h QueryHash) String() string { return Hash(h).String() }

// CacheKey joins a dataset fingerprint and a query fingerprint.
func CacheKey(dataset DatasetHash, query QueryHash) string {
	return dataset.String() + ":" + query.String()
}
