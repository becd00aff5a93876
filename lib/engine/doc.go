// Package engine defines the interface between the mvKV persistence layer
// and an embedded log-structured-merge storage engine.
//
// The package focuses on:
//   - A unified interface for engine instances and their column families
//   - Driver-level open primitives (open, create-on-open, metadata-only
//     column family listing)
//   - File-build callbacks (table property collectors, slice transforms)
//     through which higher layers attach per-file statistics collection
//
// Key Components:
//
//   - Engine Interface: One open storage instance with its set of open
//     column family handles. An Engine is exclusively owned by whichever
//     component opened it and is torn down deterministically via Close.
//
//   - Driver Interface: The open primitives of one engine implementation.
//     The storage bootstrap layer (github.com/ValentinKolb/mvKV/lib/storage)
//     is written against Driver so reconciliation logic stays independent of
//     any concrete engine.
//
//   - TablePropertiesCollector: A single-use accumulator the engine drives
//     once per entry while building a data file. Its Finish output is
//     persisted alongside the file as a PropertyMap and later decoded by
//     readers. Collectors are created per file-build job through a stateless
//     TablePropertiesCollectorFactory.
//
//   - SliceTransform: A key-prefix function the engine's indexing layer uses
//     to restrict comparisons and caching to a sub-range of each key. The
//     implementations live in github.com/ValentinKolb/mvKV/lib/keys.
//
// Column Family Model:
//
// A column family is an independently configured logical keyspace within one
// engine instance. Every engine carries the default column family
// (DefaultColumnFamily) from creation on; it can never be dropped. Requested
// column family sets are expressed as ordered CFDescriptor lists with unique
// names; the per-family CFOptions blob is passed through to the engine and
// not interpreted above it.
//
// Related Packages:
//
// The cedar package (github.com/ValentinKolb/mvKV/lib/engine/cedar) provides
// the reference implementation of Engine and Driver backed by per-column-
// family memtables and flushed data files.
//
// The storage package (github.com/ValentinKolb/mvKV/lib/storage) implements
// opening an engine with column family reconciliation on top of Driver.
package engine
