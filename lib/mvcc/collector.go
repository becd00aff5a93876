package mvcc

import (
	"bytes"

	"github.com/ValentinKolb/mvKV/lib/engine"
	"github.com/ValentinKolb/mvKV/lib/keys"
)

// --------------------------------------------------------------------------
// Per-File Collector
// --------------------------------------------------------------------------

// Collector accumulates MVCC statistics over exactly one file-build job.
// The engine feeds it every entry of the file in strictly increasing key
// order; versions of one logical key arrive contiguously with descending
// timestamps, which is what lets the distinct-key count work off the last
// observed logical key alone.
//
// Thread-safety: a Collector is only ever touched from the single goroutine
// executing its file-build job and must not be reused for another file.
type Collector struct {
	props   UserProperties
	lastKey []byte
}

// NewCollector returns a fresh collector for one file-build job.
func NewCollector() *Collector {
	return &Collector{props: NewUserProperties()}
}

// Name implements engine.TablePropertiesCollector.
func (c *Collector) Name() string { return "mvkv.user-properties-collector" }

// Add implements engine.TablePropertiesCollector. Entries outside the data
// namespace are ignored entirely. A key that fails the versioned-key split
// only increments the corruption counter; scanning continues so that a
// flush or compaction never fails over malformed statistics input.
func (c *Collector) Add(key, _ []byte, kind engine.EntryKind, _, _ uint64) {
	if !keys.ValidDataKey(key) {
		return
	}
	logical, ts, err := keys.SplitVersionedKey(key)
	if err != nil {
		c.props.NumCorrupts++
		return
	}
	c.props.MinTS = min(c.props.MinTS, ts)
	c.props.MaxTS = max(c.props.MaxTS, ts)
	if !bytes.Equal(logical, c.lastKey) {
		c.props.NumKeys++
		c.lastKey = append(c.lastKey[:0], logical...)
	}
	switch kind {
	case engine.EntryPut:
		c.props.NumPuts++
	case engine.EntryDelete:
		c.props.NumDeletes++
	default:
	}
}

// Finish implements engine.TablePropertiesCollector. It serializes the
// accumulated statistics; the collector is discarded afterwards.
func (c *Collector) Finish() engine.PropertyMap {
	return c.props.Encode()
}

// --------------------------------------------------------------------------
// Collector Factory
// --------------------------------------------------------------------------

// CollectorFactory creates one Collector per file-build job. It is
// stateless and safe to invoke concurrently from unrelated file builds.
type CollectorFactory struct{}

// NewCollectorFactory returns the factory to register with the engine.
func NewCollectorFactory() *CollectorFactory {
	return &CollectorFactory{}
}

// Name implements engine.TablePropertiesCollectorFactory.
func (f *CollectorFactory) Name() string { return "mvkv.user-properties-collector-factory" }

// Create implements engine.TablePropertiesCollectorFactory.
func (f *CollectorFactory) Create() engine.TablePropertiesCollector {
	return NewCollector()
}
