// Package keys implements the key-domain primitives of the mvKV persistence
// layer: the data namespace predicate, the versioned key codec, and the
// slice transforms handed to the engine's indexing layer.
//
// Key layout:
//
//	+--------+-------------+--------------------+
//	| 'z'    | logical key | ^timestamp (8B BE) |
//	+--------+-------------+--------------------+
//
// The leading namespace byte separates data keys from other logical
// namespaces sharing the same files. The trailing 8 bytes carry the version
// timestamp bit-inverted in big-endian order, so that under the engine's
// ascending byte order all versions of one logical key are contiguous and
// ordered newest first. The per-file statistics collector in
// github.com/ValentinKolb/mvKV/lib/mvcc relies on exactly this ordering.
//
// Slice Transforms:
//
// Three interchangeable engine.SliceTransform implementations are provided,
// one of which the engine holds as its single active strategy:
//
//   - NewFixedPrefixTransform(n): key -> first n bytes
//   - NewFixedSuffixTransform(n): key -> all but the trailing n bytes
//     (strips the version suffix, grouping versions of one logical key)
//   - NewNoopTransform(): identity
//
// Callers must only invoke Transform on keys for which InDomain returned
// true. InRange always returns true for all three variants; they are prefix
// extractors, not a general range-restriction mechanism.
package keys
