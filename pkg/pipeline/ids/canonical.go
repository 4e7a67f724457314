package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// CanonicalVersion identifies the canonical byte encoding used for hashed
// fields throughout the audit trail. It is persisted on every run so a
// reader can verify which algorithm produced a given hash.
const CanonicalVersion = "sha256-rfc8785-v1"

// Canonicalize renders value as canonical JSON: object keys sorted
// lexicographically at every nesting level, no insignificant whitespace.
// This is a pragmatic subset of RFC 8785 sufficient for the value shapes
// the runtime hashes (maps, slices, and JSON scalar types) — it does not
// implement RFC 8785's full ECMAScript number formatting rules, since the
// runtime never hashes floating point values directly (amounts are
// represented as strings or integers upstream).
func Canonicalize(value any) ([]byte, error) {
	normalized, err := normalize(value)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return json.Marshal(normalized)
}

// ContentHash returns the content hash of data's canonical encoding as a
// lowercase hex-encoded SHA-256 digest. The canonical version string
// returned alongside identifies the algorithm (see CanonicalVersion).
func ContentHash(value any) (string, error) {
	encoded, err := Canonicalize(value)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// HashBytes returns the lowercase hex-encoded SHA-256 digest of raw bytes.
// Used for content-addressing payload store blobs, which are not
// necessarily JSON.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func normalize(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(orderedMap, 0, len(keys))
		for _, k := range keys {
			nested, err := normalize(v[k])
			if err != nil {
				return nil, err
			}
			out = append(out, kv{key: k, value: nested})
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			nested, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = nested
		}
		return out, nil
	default:
		// Round-trip through JSON to normalize struct values and numeric
		// types into map[string]any / []any / scalar form, then normalize
		// those.
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, err
		}
		if _, ok := generic.(map[string]any); ok {
			return normalize(generic)
		}
		if _, ok := generic.([]any); ok {
			return normalize(generic)
		}
		return generic, nil
	}
}

// kv is one key/value pair in an orderedMap.
type kv struct {
	key   string
	value any
}

// orderedMap marshals as a JSON object preserving insertion order, which
// normalize() has already sorted lexicographically by key.
type orderedMap []kv

func (m orderedMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, pair := range m {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(pair.key)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(pair.value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}
