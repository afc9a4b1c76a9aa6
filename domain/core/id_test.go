package core

import (
	"errors"
	"testing"
)

func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestQueryHashNormalizesCaseAndWhitespace(t *testing.T) {
	a := NewQueryHash("  Top 5 by Revenue ")
	b := NewQueryHash("top 5 by revenue")
	if a != b {
		t.Errorf("Expected equal query hashes, got %s and %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("Expected md5 hex digest of length 32, got %d", len(a))
	}
}

func TestCacheKey(t *testing.T) {
	ds := NewDatasetHash([]byte("a,b\n1,2\n"))
	key := CacheKey(ds, NewQueryHash("q"))
	if len(key) != 64+1+32 {
		t.Errorf("Unexpected cache key length %d: %s", len(key), key)
	}
	if key[64] != ':' {
		t.Errorf("Expected separator at position 64, got %q", key[64])
	}
}

func TestParseDatasetHash(t *testing.T) {
	if _, err := ParseDatasetHash(""); err == nil {
		t.Error("Expected error for empty dataset ID")
	}
	if _, err := ParseDatasetHash("abc"); err == nil {
		t.Error("Expected error for short dataset ID")
	}
	ds := NewDatasetHash([]byte("x"))
	parsed, err := ParseDatasetHash(ds.String())
	if err != nil || parsed != ds {
		t.Errorf("Expected round trip of %s, got %s (%v)", ds, parsed, err)
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsNotFoundError(ErrDatasetNotFound) {
		t.Error("ErrDatasetNotFound should classify as not found")
	}
	if !IsInputError(NewUnsupportedFormatError("a.txt")) {
		t.Error("unsupported format should classify as input error")
	}
	if !errors.Is(NewUnsupportedFormatError("a.txt"), ErrUnsupportedFormat) {
		t.Error("expected wrapped ErrUnsupportedFormat")
	}
}

func TestDatasetHashShort(t *testing.T) {
	ds := NewDatasetHash([]byte("a,b\n1,2\n"))
	if got := ds.Short(); got != ds.String()[:12] {
		t.Errorf("Expected 12-character prefix, got %q", got)
	}
	if got := DatasetHash("abc").Short(); got != "abc" {
		t.Errorf("Expected short hash to be returned unchanged, got %q", got)
	}
}
