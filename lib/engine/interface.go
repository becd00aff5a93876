package engine

import "errors"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// DefaultColumnFamily is the name of the column family every engine instance
// carries from creation until it is destroyed. It can never be dropped.
const DefaultColumnFamily = "default"

var (
	// ErrColumnFamilyNotFound is returned when an operation references a
	// column family that is not open in the engine.
	ErrColumnFamilyNotFound = errors.New("engine: column family not found")

	// ErrColumnFamilyExists is returned when a column family with the same
	// name already exists.
	ErrColumnFamilyExists = errors.New("engine: column family already exists")

	// ErrCannotDropDefaultCF is returned when trying to drop the default
	// column family.
	ErrCannotDropDefaultCF = errors.New("engine: cannot drop default column family")
)

// EntryKind tags a stored entry with the kind of write it represents.
type EntryKind uint8

const (
	EntryPut    EntryKind = iota // A regular value write
	EntryDelete                  // A deletion marker
	EntryOther                   // Any other operand (e.g. a merge operand)
)

func (k EntryKind) String() string {
	switch k {
	case EntryPut:
		return "Put"
	case EntryDelete:
		return "Delete"
	default:
		return "Other"
	}
}

// PropertyMap is the persisted form of per-file metadata. Keys are unique,
// insertion order is irrelevant.
type PropertyMap map[string][]byte

// --------------------------------------------------------------------------
// File-Build Callbacks
// --------------------------------------------------------------------------

// TablePropertiesCollector accumulates metadata over the entries of exactly
// one data file while the engine builds it. The engine feeds entries in
// strictly increasing key order and calls Finish exactly once afterwards.
//
// Thread-safety: a collector instance is only ever driven by the single
// goroutine executing its file-build job, implementations need no internal
// synchronization.
type TablePropertiesCollector interface {
	// Name identifies the collector in the engine configuration.
	Name() string

	// Add is invoked once per entry written to the file.
	Add(key, value []byte, kind EntryKind, seq, fileNum uint64)

	// Finish serializes the accumulated state into a PropertyMap that the
	// engine persists alongside the file. The collector must not be used
	// afterwards.
	Finish() PropertyMap
}

// TablePropertiesCollectorFactory produces one fresh collector per
// file-build job. Factories are stateless and may be invoked concurrently
// from unrelated file builds.
type TablePropertiesCollectorFactory interface {
	Name() string
	Create() TablePropertiesCollector
}

// SliceTransform restricts key comparisons and caching in the engine's
// indexing layer to a sub-range of each key.
//
// Contract: Transform must only be called on keys for which InDomain
// returned true.
type SliceTransform interface {
	Name() string
	Transform(key []byte) []byte
	InDomain(key []byte) bool
	InRange(key []byte) bool
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// ColumnFamilyHandle is a reference to one open column family.
type ColumnFamilyHandle interface {
	// Name returns the column family name.
	Name() string

	// Valid reports whether the handle still refers to an open, not yet
	// dropped column family.
	Valid() bool
}

// Engine is one open embedded storage instance together with its set of open
// column family handles. An Engine is exclusively owned by whichever
// component opened it and must be closed deterministically by that owner.
type Engine interface {

	// --------------------------------------------------------------------------
	// Column Family Management
	// --------------------------------------------------------------------------

	// CreateColumnFamily adds a new column family with the given options.
	// A nil options value means engine defaults.
	CreateColumnFamily(name string, opts *CFOptions) (ColumnFamilyHandle, error)

	// DropColumnFamily removes a column family and its data. Dropping the
	// default column family fails with ErrCannotDropDefaultCF.
	DropColumnFamily(name string) error

	// ColumnFamily returns the handle for an open column family.
	ColumnFamily(name string) (ColumnFamilyHandle, bool)

	// ColumnFamilyNames returns the names of all open column families.
	ColumnFamilyNames() []string

	// --------------------------------------------------------------------------
	// Data Operations
	// --------------------------------------------------------------------------

	// Put stores a key-value pair in the named column family.
	Put(cf string, key, value []byte) error

	// Delete stores a deletion marker for the key in the named column family.
	Delete(cf string, key []byte) error

	// Get retrieves the value for a key from the named column family. The
	// boolean return value indicates whether the key was found and not
	// shadowed by a deletion marker.
	Get(cf string, key []byte) (value []byte, loaded bool, err error)

	// Flush writes the named column family's in-memory entries into a new
	// data file, running every registered property collector over it.
	Flush(cf string) error

	// --------------------------------------------------------------------------
	// Metadata
	// --------------------------------------------------------------------------

	// Info returns implementation-specific information about the engine.
	// All size values are estimates.
	Info() EngineInfo

	// Close releases the engine and all column family handles.
	Close() error
}

// EngineInfo reports metadata about one open engine instance.
type EngineInfo struct {
	Path           string      `json:"path"`
	ColumnFamilies []string    `json:"column_families"`
	EstSizeBytes   int         `json:"est_size_bytes"`
	Metadata       interface{} `json:"metadata"`
}

// --------------------------------------------------------------------------
// Driver Interface
// --------------------------------------------------------------------------

// Driver abstracts the open primitives of one engine implementation. It is
// what the storage bootstrap layer is written against.
type Driver interface {
	// Open opens (and with opts.CreateIfMissing creates) the engine at path
	// with exactly the given column families. Opening fails if the physical
	// column family set does not match the requested one.
	Open(opts *Options, path string, cfs []CFDescriptor) (Engine, error)

	// ListColumnFamilies returns the names of the column families physically
	// present at path without fully opening the engine.
	ListColumnFamilies(path string) ([]string, error)
}
