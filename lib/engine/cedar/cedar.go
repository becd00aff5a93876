package cedar

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/mvKV/lib/common"
	"github.com/ValentinKolb/mvKV/lib/engine"
	"github.com/ValentinKolb/mvKV/lib/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = common.CreateLogger("cedar")

// Engine-wide counters
var (
	flushesTotal        = metrics.GetOrCreateCounter("cedar_flushes_total")
	flushedEntriesTotal = metrics.GetOrCreateCounter("cedar_flushed_entries_total")
)

// --------------------------------------------------------------------------
// Driver
// --------------------------------------------------------------------------

// Driver implements engine.Driver for the cedar engine.
type Driver struct{}

// ListColumnFamilies returns the column families recorded in the manifest
// at path without opening the engine. It fails if no manifest exists, which
// is how a non-empty directory that never finished creation surfaces.
func (Driver) ListColumnFamilies(path string) ([]string, error) {
	return readManifest(path)
}

// Open opens the engine at path with exactly the given column families.
//
// With opts.CreateIfMissing set and no engine present, the directory
// structure is created first; the default column family is created
// implicitly when the descriptor lacks it. Opening an existing engine fails
// if the requested set does not match the manifest.
func (Driver) Open(opts *engine.Options, path string, cfs []engine.CFDescriptor) (engine.Engine, error) {
	if opts == nil {
		opts = engine.DefaultOptions()
	}

	_, err := os.Stat(manifestPath(path))
	exists := err == nil

	var present []string
	if !exists {
		if !opts.CreateIfMissing {
			return nil, fmt.Errorf("cedar: engine does not exist at %s", path)
		}

		// Bootstrap: requested families plus the implicit default.
		present = engine.DescriptorNames(cfs)
		if _, ok := findName(present, engine.DefaultColumnFamily); !ok {
			present = append([]string{engine.DefaultColumnFamily}, present...)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, err
		}
		for _, name := range present {
			if err := os.MkdirAll(filepath.Join(path, name), 0o755); err != nil {
				return nil, err
			}
		}
		if err := writeManifest(path, present); err != nil {
			return nil, err
		}
		log.Infof("created engine at %s with column families %v", path, present)
	} else {
		if present, err = readManifest(path); err != nil {
			return nil, err
		}
		requested := engine.DescriptorNames(cfs)
		if !sameSet(present, requested) {
			return nil, fmt.Errorf("cedar: column family mismatch at %s: present %v, requested %v",
				path, present, requested)
		}
	}

	eng := &cedarEngine{
		path: path,
		opts: opts,
		cfs:  xsync.NewMapOf[string, *columnFamily](),
	}
	for _, name := range present {
		var cfOpts *engine.CFOptions
		for _, cf := range cfs {
			if cf.Name == name {
				cfOpts = cf.Options
				break
			}
		}
		cf, err := eng.loadColumnFamily(name, cfOpts)
		if err != nil {
			return nil, err
		}
		eng.cfs.Store(name, cf)
	}
	return eng, nil
}

// --------------------------------------------------------------------------
// Column Family
// --------------------------------------------------------------------------

// memEntry is one in-memory record pending flush.
type memEntry struct {
	value []byte
	kind  engine.EntryKind
	seq   uint64
}

// columnFamily is one open column family: a memtable plus the tables
// flushed so far. It doubles as the engine.ColumnFamilyHandle handed to
// callers.
type columnFamily struct {
	name string
	opts *engine.CFOptions

	mem     *xsync.MapOf[string, memEntry]
	memSize atomic.Int64

	nextFile atomic.Uint64
	dropped  atomic.Bool

	flushMu  sync.Mutex // serializes flushes of this family
	tablesMu sync.RWMutex
	tables   []*Table // flushed tables, newest last
}

// Name implements engine.ColumnFamilyHandle.
func (cf *columnFamily) Name() string { return cf.name }

// Valid implements engine.ColumnFamilyHandle.
func (cf *columnFamily) Valid() bool { return !cf.dropped.Load() }

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// cedarEngine implements engine.Engine.
type cedarEngine struct {
	path string
	opts *engine.Options

	mu  sync.Mutex // serializes column family set changes and manifest rewrites
	cfs *xsync.MapOf[string, *columnFamily]
	seq atomic.Uint64
}

// loadColumnFamily opens the handle for one column family, reading back any
// tables flushed by a previous incarnation.
func (e *cedarEngine) loadColumnFamily(name string, opts *engine.CFOptions) (*columnFamily, error) {
	if opts == nil {
		opts = engine.DefaultCFOptions()
	}
	cf := &columnFamily{
		name: name,
		opts: opts,
		mem:  xsync.NewMapOf[string, memEntry](),
	}

	dir := filepath.Join(e.path, name)
	files, err := filepath.Glob(filepath.Join(dir, "*.sst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files) // numbered names, lexicographic = chronological
	for _, f := range files {
		t, err := OpenTable(f)
		if err != nil {
			return nil, fmt.Errorf("cedar: open table %s: %w", f, err)
		}
		cf.tables = append(cf.tables, t)
	}
	cf.nextFile.Store(uint64(len(files)))
	return cf, nil
}

// columnFamily resolves an open, not dropped family by name.
func (e *cedarEngine) columnFamily(name string) (*columnFamily, error) {
	cf, ok := e.cfs.Load(name)
	if !ok || cf.dropped.Load() {
		return nil, fmt.Errorf("%w: %q", engine.ErrColumnFamilyNotFound, name)
	}
	return cf, nil
}

// ColumnFamily implements engine.Engine.
func (e *cedarEngine) ColumnFamily(name string) (engine.ColumnFamilyHandle, bool) {
	cf, err := e.columnFamily(name)
	if err != nil {
		return nil, false
	}
	return cf, true
}

// ColumnFamilyNames implements engine.Engine.
func (e *cedarEngine) ColumnFamilyNames() []string {
	var names []string
	e.cfs.Range(func(name string, _ *columnFamily) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// CreateColumnFamily implements engine.Engine.
//
// Thread-safety: safe to call concurrently with data operations; concurrent
// create/drop calls are serialized internally.
func (e *cedarEngine) CreateColumnFamily(name string, opts *engine.CFOptions) (engine.ColumnFamilyHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.cfs.Load(name); ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrColumnFamilyExists, name)
	}
	if err := os.MkdirAll(filepath.Join(e.path, name), 0o755); err != nil {
		return nil, err
	}
	cf, err := e.loadColumnFamily(name, opts)
	if err != nil {
		return nil, err
	}
	e.cfs.Store(name, cf)
	if err := writeManifest(e.path, e.ColumnFamilyNames()); err != nil {
		return nil, err
	}
	return cf, nil
}

// DropColumnFamily implements engine.Engine. The default column family can
// never be dropped.
func (e *cedarEngine) DropColumnFamily(name string) error {
	if name == engine.DefaultColumnFamily {
		return engine.ErrCannotDropDefaultCF
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cf, ok := e.cfs.Load(name)
	if !ok {
		return fmt.Errorf("%w: %q", engine.ErrColumnFamilyNotFound, name)
	}
	cf.dropped.Store(true)
	e.cfs.Delete(name)
	if err := writeManifest(e.path, e.ColumnFamilyNames()); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(e.path, name))
}

// --------------------------------------------------------------------------
// Data Operations
// --------------------------------------------------------------------------

// Put implements engine.Engine.
//
// Thread-safety: safe for concurrent use.
func (e *cedarEngine) Put(cfName string, key, value []byte) error {
	cf, err := e.columnFamily(cfName)
	if err != nil {
		return err
	}

	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	cf.mem.Store(string(key), memEntry{
		value: valueCopy,
		kind:  engine.EntryPut,
		seq:   e.seq.Add(1),
	})
	cf.memSize.Add(int64(len(key) + len(value)))
	return e.maybeFlush(cf)
}

// maybeFlush flushes the column family synchronously once its write buffer
// is full, backpressuring writers instead of growing without bound.
func (e *cedarEngine) maybeFlush(cf *columnFamily) error {
	if cf.opts.WriteBufferSize > 0 && cf.memSize.Load() >= int64(cf.opts.WriteBufferSize) {
		return e.Flush(cf.name)
	}
	return nil
}

// Delete implements engine.Engine. The deletion marker shadows the key in
// older tables until it is compacted away.
//
// Thread-safety: safe for concurrent use.
func (e *cedarEngine) Delete(cfName string, key []byte) error {
	cf, err := e.columnFamily(cfName)
	if err != nil {
		return err
	}
	cf.mem.Store(string(key), memEntry{
		kind: engine.EntryDelete,
		seq:  e.seq.Add(1),
	})
	cf.memSize.Add(int64(len(key)))
	return e.maybeFlush(cf)
}

// Get implements engine.Engine. It consults the memtable first, then the
// flushed tables newest first, skipping tables whose prefix index rules the
// key out.
//
// Thread-safety: safe for concurrent use.
func (e *cedarEngine) Get(cfName string, key []byte) ([]byte, bool, error) {
	cf, err := e.columnFamily(cfName)
	if err != nil {
		return nil, false, err
	}

	if entry, ok := cf.mem.Load(string(key)); ok {
		if entry.kind == engine.EntryDelete {
			return nil, false, nil
		}
		value := make([]byte, len(entry.value))
		copy(value, entry.value)
		return value, true, nil
	}

	var prefix []byte
	if t := e.opts.PrefixTransform; t != nil && t.InDomain(key) {
		prefix = t.Transform(key)
	}

	cf.tablesMu.RLock()
	defer cf.tablesMu.RUnlock()
	for i := len(cf.tables) - 1; i >= 0; i-- {
		t := cf.tables[i]
		if prefix != nil && !t.MayContainPrefix(prefix) {
			continue
		}
		if value, kind, ok := t.Get(key); ok {
			if kind == engine.EntryDelete {
				return nil, false, nil
			}
			valueCopy := make([]byte, len(value))
			copy(valueCopy, value)
			return valueCopy, true, nil
		}
	}
	return nil, false, nil
}

// Flush implements engine.Engine. It snapshots the memtable, writes one new
// table file in key order while the registered property collectors observe
// every entry, and clears the flushed entries from memory.
//
// Thread-safety: flushes of one column family are serialized; writes may
// proceed concurrently and are retained for the next flush.
func (e *cedarEngine) Flush(cfName string) error {
	cf, err := e.columnFamily(cfName)
	if err != nil {
		return err
	}

	cf.flushMu.Lock()
	defer cf.flushMu.Unlock()

	// Snapshot the memtable
	var entries []tableEntry
	cf.mem.Range(func(key string, entry memEntry) bool {
		entries = append(entries, tableEntry{
			key:   []byte(key),
			value: entry.value,
			kind:  entry.kind,
			seq:   entry.seq,
		})
		return true
	})
	if len(entries) == 0 {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		return string(entries[i].key) < string(entries[j].key)
	})

	fileNum := cf.nextFile.Add(1)
	path := filepath.Join(e.path, cf.name, fmt.Sprintf("%06d.sst", fileNum))
	if err := writeTable(path, entries, fileNum, e.opts.CollectorFactories, e.opts.PrefixTransform); err != nil {
		return fmt.Errorf("cedar: flush %q: %w", cf.name, err)
	}

	t, err := OpenTable(path)
	if err != nil {
		return err
	}
	cf.tablesMu.Lock()
	cf.tables = append(cf.tables, t)
	cf.tablesMu.Unlock()

	// Drop the flushed entries, keeping any that were overwritten while the
	// table was being written.
	for _, flushed := range entries {
		seq := flushed.seq
		cf.mem.Compute(string(flushed.key), func(cur memEntry, loaded bool) (memEntry, bool) {
			if !loaded {
				return cur, true // set delete to true because else the value will be created
			}
			return cur, cur.seq == seq
		})
		cf.memSize.Add(-int64(len(flushed.key) + len(flushed.value)))
	}

	flushesTotal.Inc()
	flushedEntriesTotal.Add(len(entries))
	log.Infof("flushed %d entries of %q to %s", len(entries), cf.name, path)
	return nil
}

// --------------------------------------------------------------------------
// Metadata and Teardown
// --------------------------------------------------------------------------

// Tables returns the open tables of a column family, oldest first. The
// returned tables are immutable.
func (e *cedarEngine) Tables(cfName string) ([]*Table, error) {
	cf, err := e.columnFamily(cfName)
	if err != nil {
		return nil, err
	}
	cf.tablesMu.RLock()
	defer cf.tablesMu.RUnlock()
	tables := make([]*Table, len(cf.tables))
	copy(tables, cf.tables)
	return tables, nil
}

// Info implements engine.Engine. All sizes are estimates.
func (e *cedarEngine) Info() engine.EngineInfo {
	histogram := util.NewSizeHistogram()
	var (
		memBytes   int64
		tableCount int
		tableBytes int64
	)
	e.cfs.Range(func(_ string, cf *columnFamily) bool {
		memBytes += cf.memSize.Load()
		cf.mem.Range(func(_ string, entry memEntry) bool {
			histogram.AddSample(len(entry.value))
			return true
		})
		cf.tablesMu.RLock()
		for _, t := range cf.tables {
			tableCount++
			for _, entry := range t.entries {
				tableBytes += int64(len(entry.key) + len(entry.value))
			}
		}
		cf.tablesMu.RUnlock()
		return true
	})

	meta := &struct {
		TableCount      int   `json:"table_count"`
		MemBytes        int64 `json:"mem_bytes"`
		MedianValueSize int   `json:"median_value_size"`
	}{
		TableCount:      tableCount,
		MemBytes:        memBytes,
		MedianValueSize: histogram.MedianEstimate(),
	}

	return engine.EngineInfo{
		Path:           e.path,
		ColumnFamilies: e.ColumnFamilyNames(),
		EstSizeBytes:   int(memBytes + tableBytes),
		Metadata:       meta,
	}
}

// Close implements engine.Engine.
//
// Thread-safety: not safe to call concurrently with other operations; the
// owner tears the engine down deterministically after all use has stopped.
func (e *cedarEngine) Close() error {
	e.cfs.Clear()
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func findName(names []string, name string) (int, bool) {
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// sameSet compares two name lists order-independently.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, n := range a {
		if _, ok := findName(b, n); !ok {
			return false
		}
	}
	return true
}
