package keys

import (
	"encoding/binary"
	"fmt"
)

// --------------------------------------------------------------------------
// Data Namespace
// --------------------------------------------------------------------------

// dataPrefix marks keys belonging to the store's data namespace. Other
// logical namespaces (engine-internal bookkeeping, raft state, ...) share
// the same files and must be kept out of the MVCC statistics.
const dataPrefix = 'z'

// tsLen is the width of the version timestamp suffix of a data key.
const tsLen = 8

// DataKey prepends the data namespace prefix to a key.
func DataKey(key []byte) []byte {
	k := make([]byte, 0, len(key)+1)
	k = append(k, dataPrefix)
	return append(k, key...)
}

// ValidDataKey reports whether a key belongs to the data namespace.
func ValidDataKey(key []byte) bool {
	return len(key) > 0 && key[0] == dataPrefix
}

// OriginKey strips the data namespace prefix. It must only be called on keys
// for which ValidDataKey returned true.
func OriginKey(key []byte) []byte {
	return key[1:]
}

// --------------------------------------------------------------------------
// Versioned Keys
// --------------------------------------------------------------------------

// EncodeVersionedKey appends the version timestamp to a logical key. The
// timestamp is stored bit-inverted in big-endian order so that all versions
// of one logical key sort contiguously with the newest version first.
func EncodeVersionedKey(logical []byte, ts uint64) []byte {
	k := make([]byte, 0, len(logical)+tsLen)
	k = append(k, logical...)
	return binary.BigEndian.AppendUint64(k, ^ts)
}

// SplitVersionedKey splits a versioned key into its logical key and version
// timestamp. It fails on keys too short to carry a timestamp suffix.
func SplitVersionedKey(key []byte) (logical []byte, ts uint64, err error) {
	if len(key) < tsLen {
		return nil, 0, fmt.Errorf("keys: invalid versioned key, %d bytes", len(key))
	}
	mid := len(key) - tsLen
	return key[:mid], ^binary.BigEndian.Uint64(key[mid:]), nil
}
