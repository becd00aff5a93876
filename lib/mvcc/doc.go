// Package mvcc computes and persists per-file multi-version statistics.
//
// During every flush or compaction the engine instantiates one Collector
// through the registered CollectorFactory, feeds it each entry of the file
// being built in key order, and stores the Finish output as part of the
// file's property map. Readers later decode that map back into a
// UserProperties value and may merge the records of several files with Add
// to obtain range-level aggregates. Garbage collection and compaction
// filtering elsewhere in the system are built on exactly these numbers.
//
// The statistics tracked per file are the timestamp range (MinTS/MaxTS),
// the number of distinct logical keys, put and delete counters, and a
// counter of entries whose versioned-key encoding could not be split.
// Corruption is deliberately not escalated to a failure: a flush must make
// forward progress even over malformed keys, so such entries only bump
// NumCorrupts and are excluded from all other fields.
//
// Decoding is defined over the minimal Lookup capability instead of a
// concrete map type, so the same logic serves an owned engine.PropertyMap
// (via PropertyMapLookup) and borrowed views like the lazy property block
// of an open data file.
package mvcc
