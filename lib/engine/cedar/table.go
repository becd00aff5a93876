package cedar

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ValentinKolb/mvKV/lib/engine"
)

// --------------------------------------------------------------------------
// Table File Format
// --------------------------------------------------------------------------

// Constants for the on-disk table format
const (
	tableMagic   = "CEDARSST" // File format identifier
	tableVersion = 1          // Table format version
	tableBufSize = 256 * 1024 // Read/write buffer size
)

// tableEntry is one sorted key-value record of a table file.
type tableEntry struct {
	key   []byte
	value []byte
	kind  engine.EntryKind
	seq   uint64
}

// --------------------------------------------------------------------------
// Table Writer
// --------------------------------------------------------------------------

// writeTable builds one table file from entries already sorted by key. Every
// registered collector factory contributes a fresh collector that observes
// each entry; their Finish outputs are merged into the persisted property
// map. If a prefix transform is configured, the distinct transform outputs
// of all in-domain keys are stored as the file's prefix index.
func writeTable(path string, entries []tableEntry, fileNum uint64,
	factories []engine.TablePropertiesCollectorFactory, transform engine.SliceTransform) error {

	collectors := make([]engine.TablePropertiesCollector, len(factories))
	for i, f := range factories {
		collectors[i] = f.Create()
	}

	var prefixes [][]byte
	seen := make(map[string]struct{})

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, tableBufSize)

	// Header
	if _, err := bw.WriteString(tableMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(tableVersion)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(entries))); err != nil {
		return err
	}

	// Entry block
	for _, e := range entries {
		for _, c := range collectors {
			c.Add(e.key, e.value, e.kind, e.seq, fileNum)
		}
		if transform != nil && transform.InDomain(e.key) {
			p := transform.Transform(e.key)
			if _, ok := seen[string(p)]; !ok {
				seen[string(p)] = struct{}{}
				prefixes = append(prefixes, append([]byte(nil), p...))
			}
		}

		if err := binary.Write(bw, binary.LittleEndian, uint32(len(e.key))); err != nil {
			return err
		}
		if _, err := bw.Write(e.key); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(e.value))); err != nil {
			return err
		}
		if _, err := bw.Write(e.value); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint8(e.kind)); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, e.seq); err != nil {
			return err
		}
	}

	// Property block
	props := engine.PropertyMap{}
	for _, c := range collectors {
		for k, v := range c.Finish() {
			props[k] = v
		}
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := binary.Write(bw, binary.LittleEndian, uint32(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(k))); err != nil {
			return err
		}
		if _, err := bw.WriteString(k); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(props[k]))); err != nil {
			return err
		}
		if _, err := bw.Write(props[k]); err != nil {
			return err
		}
	}

	// Prefix index block
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(prefixes))); err != nil {
		return err
	}
	for _, p := range prefixes {
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(p))); err != nil {
			return err
		}
		if _, err := bw.Write(p); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// --------------------------------------------------------------------------
// Table Reader
// --------------------------------------------------------------------------

// Table is one open, immutable table file. Entries are held sorted by key.
type Table struct {
	entries  []tableEntry
	props    engine.PropertyMap
	prefixes map[string]struct{}
}

// OpenTable reads a table file into memory.
func OpenTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, tableBufSize)

	// Header
	magic := make([]byte, len(tableMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, err
	}
	if string(magic) != tableMagic {
		return nil, fmt.Errorf("cedar: invalid table file: magic number mismatch")
	}
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != tableVersion {
		return nil, fmt.Errorf("cedar: unsupported table version: %d (expected %d)", version, tableVersion)
	}

	// Entry block
	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	t := &Table{
		entries:  make([]tableEntry, 0, count),
		props:    engine.PropertyMap{},
		prefixes: make(map[string]struct{}),
	}
	for i := uint32(0); i < count; i++ {
		var e tableEntry
		var keyLen, valLen uint32
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return nil, err
		}
		e.key = make([]byte, keyLen)
		if _, err := io.ReadFull(br, e.key); err != nil {
			return nil, err
		}
		if err := binary.Read(br, binary.LittleEndian, &valLen); err != nil {
			return nil, err
		}
		e.value = make([]byte, valLen)
		if _, err := io.ReadFull(br, e.value); err != nil {
			return nil, err
		}
		var kind uint8
		if err := binary.Read(br, binary.LittleEndian, &kind); err != nil {
			return nil, err
		}
		e.kind = engine.EntryKind(kind)
		if err := binary.Read(br, binary.LittleEndian, &e.seq); err != nil {
			return nil, err
		}
		t.entries = append(t.entries, e)
	}

	// Property block
	var propCount uint32
	if err := binary.Read(br, binary.LittleEndian, &propCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < propCount; i++ {
		var keyLen uint16
		if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
			return nil, err
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(br, key); err != nil {
			return nil, err
		}
		var valLen uint32
		if err := binary.Read(br, binary.LittleEndian, &valLen); err != nil {
			return nil, err
		}
		val := make([]byte, valLen)
		if _, err := io.ReadFull(br, val); err != nil {
			return nil, err
		}
		t.props[string(key)] = val
	}

	// Prefix index block
	var prefixCount uint32
	if err := binary.Read(br, binary.LittleEndian, &prefixCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < prefixCount; i++ {
		var n uint16
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		p := make([]byte, n)
		if _, err := io.ReadFull(br, p); err != nil {
			return nil, err
		}
		t.prefixes[string(p)] = struct{}{}
	}

	return t, nil
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Get returns the entry for an exact key. The boolean indicates whether the
// key is present; a deletion marker is returned as present with
// engine.EntryDelete so callers can shadow older files.
func (t *Table) Get(key []byte) (value []byte, kind engine.EntryKind, ok bool) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return bytes.Compare(t.entries[i].key, key) >= 0
	})
	if i < len(t.entries) && bytes.Equal(t.entries[i].key, key) {
		return t.entries[i].value, t.entries[i].kind, true
	}
	return nil, engine.EntryOther, false
}

// MayContainPrefix consults the file's prefix index. A false return value
// guarantees no in-domain key of the table maps to the given transform
// output. Tables written without a transform report true for everything.
func (t *Table) MayContainPrefix(prefix []byte) bool {
	if len(t.prefixes) == 0 {
		return true
	}
	_, ok := t.prefixes[string(prefix)]
	return ok
}

// Properties returns the persisted property map of the table.
func (t *Table) Properties() engine.PropertyMap {
	return t.props
}

// UserProperty returns the value stored under the given property key. This
// is the lookup capability the mvcc decoder is defined over, served here
// from a borrowed view of the file's property block.
func (t *Table) UserProperty(key string) ([]byte, bool) {
	v, ok := t.props[key]
	return v, ok
}
