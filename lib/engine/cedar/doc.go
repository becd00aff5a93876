// Package cedar provides the reference implementation of the engine.Engine
// and engine.Driver interfaces: a small embedded storage engine with
// per-column-family memtables and immutable, sorted table files.
//
// On-disk layout:
//
//	<path>/CFMANIFEST          binary manifest listing all column families
//	<path>/<cf>/000001.sst     numbered table files, one per flush
//
// The manifest is the source of truth for the column family set and is the
// only thing ListColumnFamilies reads, so the set can be inspected without
// opening the engine. A directory without a readable manifest is reported
// as a listing failure; the storage bootstrap layer relies on that to
// distinguish "engine never finished creation" from a healthy instance.
//
// Table files carry three blocks: the sorted entries, a property map, and a
// prefix index. While a flush writes the entry block it drives every
// property collector registered in the engine options over the entries in
// key order; the collectors' output becomes the file's property map. If a
// slice transform is configured, the distinct transform outputs of all
// in-domain keys are persisted as the prefix index, which point lookups use
// to skip tables that cannot contain the key.
//
// Concurrency: writes and reads are safe for concurrent use (memtables are
// xsync maps), flushes of one column family are serialized internally, and
// column family create/drop is serialized against manifest rewrites. The
// engine is exclusively owned by its opener and closed exactly once.
//
// Cedar trades features for transparency: there is no write-ahead log and
// no background compaction. It is the engine the tests and the inspect
// tooling run against, and the template for wiring a production engine
// behind the same interfaces.
package cedar
