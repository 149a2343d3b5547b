package cache

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
)

// keyDelimiter separates key:value pairs in the joined canonical form.
// The unit separator is not expected to occur in serialized values.
const keyDelimiter = "\x1f"

// Keyer derives deterministic cache keys from parameter maps.
//
// Contract:
// - Determinism: set-equal maps must produce the same key regardless
//   of insertion order.
// - Totality: Key never fails; unserializable values degrade to their
//   string coercion.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key from a parameter map.
	Key(params map[string]any) string
}

// DefaultKeyer derives FNV-1a compressed keys from canonically
// serialized parameters.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key derives a deterministic cache key.
// Parameters are sorted by name, rendered as canonical key:value pairs
// joined by a unit separator, and compressed with a 32-bit FNV-1a
// hash. Hash collisions trade correctness of lookup for key size; the
// cached value itself is what callers consume, so a collision costs a
// wrong hit, which this design accepts for small parameter spaces.
func (k *DefaultKeyer) Key(params map[string]any) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	joined := make([]byte, 0, 64)
	for i, name := range names {
		if i > 0 {
			joined = append(joined, keyDelimiter...)
		}
		joined = append(joined, name...)
		joined = append(joined, ':')
		joined = append(joined, canonicalValue(params[name])...)
	}

	h := fnv.New32a()
	h.Write(joined)
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}

// canonicalValue produces a stable textual form of v. Maps are sorted
// by key; slices keep their order. Serialization failures degrade to
// fmt.Sprint.
func canonicalValue(v any) []byte {
	if v == nil {
		return []byte("null")
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalMap(val)
	case []any:
		return canonicalSlice(val)
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return []byte(fmt.Sprint(v))
		}
		return out
	}
}

func canonicalMap(m map[string]any) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		name, err := json.Marshal(k)
		if err != nil {
			name = []byte(fmt.Sprintf("%q", k))
		}
		result = append(result, name...)
		result = append(result, ':')
		result = append(result, canonicalValue(m[k])...)
	}
	return append(result, '}')
}

func canonicalSlice(s []any) []byte {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		result = append(result, canonicalValue(v)...)
	}
	return append(result, ']')
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
