package storage

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/mvKV/lib/common"
	"github.com/ValentinKolb/mvKV/lib/engine"
)

var log = common.CreateLogger("storage")

// --------------------------------------------------------------------------
// Plain Open
// --------------------------------------------------------------------------

// Open opens the engine at path assuming it already physically contains
// exactly the given column families, all with default options. It fails
// with the driver's open error if that assumption is violated.
func Open(d engine.Driver, path string, cfNames []string) (engine.Engine, error) {
	cfs := make([]engine.CFDescriptor, len(cfNames))
	for i, name := range cfNames {
		cfs[i] = engine.NewCFDescriptor(name, engine.DefaultCFOptions())
	}
	return OpenWithOptions(d, engine.DefaultOptions(), path, cfs)
}

// OpenWithOptions is Open with explicit engine options and per-column-family
// options. Create-on-open is disabled regardless of the passed options; use
// NewEngineWithOptions to bootstrap a fresh engine.
func OpenWithOptions(d engine.Driver, opts *engine.Options, path string, cfs []engine.CFDescriptor) (engine.Engine, error) {
	o := *opts
	o.CreateIfMissing = false
	return d.Open(&o, path, cfs)
}

// --------------------------------------------------------------------------
// Open Or Create
// --------------------------------------------------------------------------

// NewEngine opens the engine at path, creating it if nothing exists there
// yet and otherwise reconciling its physical column family set against the
// given names (default options each). This is the entry point real callers
// use at store startup.
func NewEngine(d engine.Driver, path string, cfNames []string) (engine.Engine, error) {
	cfs := make([]engine.CFDescriptor, len(cfNames))
	for i, name := range cfNames {
		cfs[i] = engine.NewCFDescriptor(name, engine.DefaultCFOptions())
	}
	return NewEngineWithOptions(d, path, engine.DefaultOptions(), cfs)
}

// NewEngineWithOptions is NewEngine with explicit engine options and a full
// column family descriptor.
func NewEngineWithOptions(d engine.Driver, path string, opts *engine.Options, cfs []engine.CFDescriptor) (engine.Engine, error) {
	return checkAndOpen(d, path, opts, cfs)
}

// checkAndOpen brings the column families physically present at path in
// line with the descriptor and returns the opened engine. The default
// column family is never dropped, regardless of the descriptor.
//
// A create or drop failure mid-reconciliation surfaces immediately and may
// leave the engine with a partially reconciled family set; there is no
// rollback. Re-running with the same descriptor converges to the same
// target set.
//
// Thread-safety: this function must run exactly once, synchronously, before
// any concurrent access to the engine begins. The embedding system has to
// guarantee at most one open attempt per path at a time.
func checkAndOpen(d engine.Driver, path string, opts *engine.Options, cfs []engine.CFDescriptor) (engine.Engine, error) {
	o := *opts

	// If the engine does not exist, create it.
	if !engineExists(path) {
		o.CreateIfMissing = true

		// The open primitive requires the default family at creation time,
		// so open with only the default entry (if the descriptor has one)
		// and create the rest afterwards.
		var bootstrap []engine.CFDescriptor
		if cf, ok := findCF(cfs, engine.DefaultColumnFamily); ok {
			bootstrap = append(bootstrap, cf)
		}
		eng, err := d.Open(&o, path, bootstrap)
		if err != nil {
			return nil, err
		}
		for _, cf := range cfs {
			if cf.Name == engine.DefaultColumnFamily {
				continue
			}
			log.Infof("creating column family %q at %s", cf.Name, path)
			if _, err := eng.CreateColumnFamily(cf.Name, cf.Options); err != nil {
				return nil, fmt.Errorf("create column family %q: %w", cf.Name, err)
			}
		}
		return eng, nil
	}

	o.CreateIfMissing = false

	// List the column families physically present without a full open.
	existed, err := d.ListColumnFamilies(path)
	if err != nil {
		return nil, err
	}
	needed := engine.DescriptorNames(cfs)

	// Fast path: the present set already matches the requested one, just
	// open with every family's descriptor options. The comparison is
	// order-independent so a reordered descriptor causes no drop/create
	// churn.
	if len(cfsDiff(existed, needed)) == 0 && len(cfsDiff(needed, existed)) == 0 {
		return d.Open(&o, path, cfs)
	}

	// Open with exactly the present set, using descriptor options where
	// given and defaults otherwise. A family about to be dropped still gets
	// opened momentarily this way.
	open := make([]engine.CFDescriptor, 0, len(existed))
	for _, name := range existed {
		if cf, ok := findCF(cfs, name); ok {
			open = append(open, cf)
		} else {
			open = append(open, engine.NewCFDescriptor(name, engine.DefaultCFOptions()))
		}
	}
	eng, err := d.Open(&o, path, open)
	if err != nil {
		return nil, err
	}

	// Drop discarded column families, never the default one.
	for _, name := range cfsDiff(existed, needed) {
		if name == engine.DefaultColumnFamily {
			continue
		}
		log.Infof("dropping column family %q at %s", name, path)
		if err := eng.DropColumnFamily(name); err != nil {
			return nil, fmt.Errorf("drop column family %q: %w", name, err)
		}
	}

	// Create requested column families not present yet.
	for _, name := range cfsDiff(needed, existed) {
		cf, _ := findCF(cfs, name)
		log.Infof("creating column family %q at %s", name, path)
		if _, err := eng.CreateColumnFamily(name, cf.Options); err != nil {
			return nil, fmt.Errorf("create column family %q: %w", name, err)
		}
	}

	return eng, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// engineExists reports whether an engine has been created at path. An
// existing but empty directory counts as "does not exist yet": a prior
// failed creation leaves at most an empty directory behind, and treating it
// as absent permits cleanup and retry.
func engineExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// cfsDiff returns the names in a that are not in b, preserving the order
// of a.
func cfsDiff(a, b []string) []string {
	var diff []string
	for _, name := range a {
		found := false
		for _, other := range b {
			if name == other {
				found = true
				break
			}
		}
		if !found {
			diff = append(diff, name)
		}
	}
	return diff
}

// findCF returns the descriptor entry for the given name.
func findCF(cfs []engine.CFDescriptor, name string) (engine.CFDescriptor, bool) {
	for _, cf := range cfs {
		if cf.Name == name {
			return cf, true
		}
	}
	return engine.CFDescriptor{}, false
}
