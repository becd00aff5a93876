package mvcc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/mvKV/lib/engine"
)

// --------------------------------------------------------------------------
// Property Keys
// --------------------------------------------------------------------------

// Property map keys under which the MVCC statistics are persisted. This is
// the only on-disk format owned by this package; values are 8-byte
// big-endian unsigned integers.
const (
	propMinTS       = "mvkv.min_ts"
	propMaxTS       = "mvkv.max_ts"
	propNumKeys     = "mvkv.num_keys"
	propNumPuts     = "mvkv.num_puts"
	propNumDeletes  = "mvkv.num_deletes"
	propNumCorrupts = "mvkv.num_corrupts"
)

// ErrPropertyNotFound is returned by DecodeUserProperties when one of the
// expected property keys is absent from the source.
var ErrPropertyNotFound = fmt.Errorf("mvcc: property not found")

// --------------------------------------------------------------------------
// UserProperties
// --------------------------------------------------------------------------

// UserProperties aggregates multi-version statistics over the entries of
// one or more data files. It is consumed by garbage-collection and
// compaction-filtering logic elsewhere in the system.
//
// When no valid entry was ever observed, MinTS holds the maximum
// representable value and MaxTS the minimum, acting as sentinel "empty"
// markers. Corrupt entries are counted in NumCorrupts only and excluded
// from every other field.
type UserProperties struct {
	MinTS       uint64
	MaxTS       uint64
	NumKeys     uint64
	NumPuts     uint64
	NumDeletes  uint64
	NumCorrupts uint64
}

// NewUserProperties returns an empty statistics record with the timestamp
// sentinels in place.
func NewUserProperties() UserProperties {
	return UserProperties{MinTS: math.MaxUint64, MaxTS: 0}
}

// NumVersions returns the number of recorded versions (puts plus deletes).
func (p *UserProperties) NumVersions() uint64 {
	return p.NumPuts + p.NumDeletes
}

// Add merges the statistics of another record into the receiver. The
// argument is not mutated, so independent pairs may be merged concurrently.
// Merging an empty record is a no-op on every field.
func (p *UserProperties) Add(other *UserProperties) {
	p.MinTS = min(p.MinTS, other.MinTS)
	p.MaxTS = max(p.MaxTS, other.MaxTS)
	p.NumKeys += other.NumKeys
	p.NumPuts += other.NumPuts
	p.NumDeletes += other.NumDeletes
	p.NumCorrupts += other.NumCorrupts
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode serializes the record into a fresh property map.
func (p *UserProperties) Encode() engine.PropertyMap {
	return engine.PropertyMap{
		propMinTS:       encodeUint64(p.MinTS),
		propMaxTS:       encodeUint64(p.MaxTS),
		propNumKeys:     encodeUint64(p.NumKeys),
		propNumPuts:     encodeUint64(p.NumPuts),
		propNumDeletes:  encodeUint64(p.NumDeletes),
		propNumCorrupts: encodeUint64(p.NumCorrupts),
	}
}

func encodeUint64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), v)
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// Lookup is the minimal capability DecodeUserProperties needs from a
// property source: resolve the value bytes for a known property key. Both
// owned maps (see PropertyMapLookup) and borrowed views such as a data file
// reader's lazy property block satisfy it.
type Lookup interface {
	// UserProperty returns the value stored under the given property key.
	// The boolean return value indicates whether the key was present.
	UserProperty(key string) (value []byte, ok bool)
}

// PropertyMapLookup adapts an engine.PropertyMap to the Lookup capability.
type PropertyMapLookup engine.PropertyMap

// UserProperty implements Lookup.
func (m PropertyMapLookup) UserProperty(key string) ([]byte, bool) {
	v, ok := m[key]
	return v, ok
}

// DecodeUserProperties parses a statistics record out of any property
// source. It fails with ErrPropertyNotFound if one of the six keys is
// absent, and with a decode error if a value is malformed.
func DecodeUserProperties(src Lookup) (UserProperties, error) {
	var (
		p   UserProperties
		err error
	)
	if p.MinTS, err = decodeUint64(src, propMinTS); err != nil {
		return p, err
	}
	if p.MaxTS, err = decodeUint64(src, propMaxTS); err != nil {
		return p, err
	}
	if p.NumKeys, err = decodeUint64(src, propNumKeys); err != nil {
		return p, err
	}
	if p.NumPuts, err = decodeUint64(src, propNumPuts); err != nil {
		return p, err
	}
	if p.NumDeletes, err = decodeUint64(src, propNumDeletes); err != nil {
		return p, err
	}
	if p.NumCorrupts, err = decodeUint64(src, propNumCorrupts); err != nil {
		return p, err
	}
	return p, nil
}

func decodeUint64(src Lookup, key string) (uint64, error) {
	v, ok := src.UserProperty(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPropertyNotFound, key)
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("mvcc: malformed property %s: %d bytes, want 8", key, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}
