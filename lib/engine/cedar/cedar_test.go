package cedar

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/mvKV/lib/engine"
	"github.com/ValentinKolb/mvKV/lib/keys"
	"github.com/ValentinKolb/mvKV/lib/mvcc"
)

func defaultCFs() []engine.CFDescriptor {
	return []engine.CFDescriptor{engine.NewCFDescriptor(engine.DefaultColumnFamily, nil)}
}

func createOpts() *engine.Options {
	return &engine.Options{CreateIfMissing: true}
}

func TestOpenCreateIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine")

	// opening a missing engine without create-on-open fails
	if _, err := (Driver{}).Open(engine.DefaultOptions(), path, defaultCFs()); err == nil {
		t.Fatal("expected open of missing engine to fail")
	}

	eng, err := Driver{}.Open(createOpts(), path, defaultCFs())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer eng.Close()

	names, err := Driver{}.ListColumnFamilies(path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != engine.DefaultColumnFamily {
		t.Errorf("expected [default], got %v", names)
	}
}

func TestOpenCreatesDefaultImplicitly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine")

	// empty descriptor at creation time: the default family appears anyway
	eng, err := Driver{}.Open(createOpts(), path, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer eng.Close()

	if _, ok := eng.ColumnFamily(engine.DefaultColumnFamily); !ok {
		t.Error("expected implicit default column family handle")
	}
}

func TestOpenRejectsFamilyMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine")

	eng, err := Driver{}.Open(createOpts(), path, defaultCFs())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatal(err)
	}

	cfs := append(defaultCFs(), engine.NewCFDescriptor("cf1", nil))
	if _, err := (Driver{}).Open(engine.DefaultOptions(), path, cfs); err == nil {
		t.Error("expected open with unknown family to fail")
	}
}

func TestListColumnFamiliesWithoutManifest(t *testing.T) {
	if _, err := (Driver{}).ListColumnFamilies(t.TempDir()); err == nil {
		t.Error("expected listing without manifest to fail")
	}
}

func TestCreateAndDropColumnFamily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine")

	eng, err := Driver{}.Open(createOpts(), path, defaultCFs())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer eng.Close()

	handle, err := eng.CreateColumnFamily("cf1", nil)
	if err != nil {
		t.Fatalf("create cf1: %v", err)
	}
	if !handle.Valid() || handle.Name() != "cf1" {
		t.Errorf("expected valid handle for cf1, got %q valid=%v", handle.Name(), handle.Valid())
	}

	if _, err := eng.CreateColumnFamily("cf1", nil); !errors.Is(err, engine.ErrColumnFamilyExists) {
		t.Errorf("expected ErrColumnFamilyExists, got %v", err)
	}

	if err := eng.DropColumnFamily(engine.DefaultColumnFamily); !errors.Is(err, engine.ErrCannotDropDefaultCF) {
		t.Errorf("expected ErrCannotDropDefaultCF, got %v", err)
	}

	if err := eng.DropColumnFamily("cf1"); err != nil {
		t.Fatalf("drop cf1: %v", err)
	}
	if handle.Valid() {
		t.Error("expected handle of dropped family to be invalid")
	}
	if err := eng.DropColumnFamily("cf1"); !errors.Is(err, engine.ErrColumnFamilyNotFound) {
		t.Errorf("expected ErrColumnFamilyNotFound, got %v", err)
	}

	// the manifest reflects the drop without reopening
	names, err := Driver{}.ListColumnFamilies(path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != engine.DefaultColumnFamily {
		t.Errorf("expected [default], got %v", names)
	}
}

func TestPutGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine")

	eng, err := Driver{}.Open(createOpts(), path, defaultCFs())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer eng.Close()

	cf := engine.DefaultColumnFamily
	if err := eng.Put(cf, []byte("k"), []byte("v1")); err != nil {
		t.Fatal(err)
	}

	value, loaded, err := eng.Get(cf, []byte("k"))
	if err != nil || !loaded {
		t.Fatalf("expected value, got loaded=%v err=%v", loaded, err)
	}
	if !bytes.Equal(value, []byte("v1")) {
		t.Errorf("expected v1, got %q", value)
	}

	// returned value is a copy
	value[0] = 'X'
	value, _, _ = eng.Get(cf, []byte("k"))
	if !bytes.Equal(value, []byte("v1")) {
		t.Errorf("expected stored value untouched, got %q", value)
	}

	if err := eng.Delete(cf, []byte("k")); err != nil {
		t.Fatal(err)
	}
	if _, loaded, _ := eng.Get(cf, []byte("k")); loaded {
		t.Error("expected deleted key to be gone")
	}

	if err := eng.Put("nope", []byte("k"), []byte("v")); !errors.Is(err, engine.ErrColumnFamilyNotFound) {
		t.Errorf("expected ErrColumnFamilyNotFound, got %v", err)
	}
}

func TestFlushPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine")

	eng, err := Driver{}.Open(createOpts(), path, defaultCFs())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cf := engine.DefaultColumnFamily
	if err := eng.Put(cf, []byte("a"), []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := eng.Delete(cf, []byte("b")); err != nil {
		t.Fatal(err)
	}
	if err := eng.Flush(cf); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatal(err)
	}

	eng, err = Driver{}.Open(engine.DefaultOptions(), path, defaultCFs())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer eng.Close()

	value, loaded, err := eng.Get(cf, []byte("a"))
	if err != nil || !loaded {
		t.Fatalf("expected flushed value after reopen, got loaded=%v err=%v", loaded, err)
	}
	if !bytes.Equal(value, []byte("1")) {
		t.Errorf("expected 1, got %q", value)
	}

	// the deletion marker shadows the key after reopen too
	if _, loaded, _ := eng.Get(cf, []byte("b")); loaded {
		t.Error("expected deletion marker to survive the flush")
	}
}

func TestFlushRunsPropertyCollectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine")

	opts := createOpts()
	opts.AddCollectorFactory(mvcc.NewCollectorFactory())
	opts.PrefixTransform = keys.NewFixedSuffixTransform(8)

	eng, err := Driver{}.Open(opts, path, defaultCFs())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer eng.Close()

	cf := engine.DefaultColumnFamily
	writes := []struct {
		logical string
		ts      uint64
		delete  bool
	}{
		{"ab", 2, false},
		{"cd", 4, true},
		{"ef", 6, false},
	}
	for _, w := range writes {
		key := keys.DataKey(keys.EncodeVersionedKey([]byte(w.logical), w.ts))
		if w.delete {
			err = eng.Delete(cf, key)
		} else {
			err = eng.Put(cf, key, []byte("v"))
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := eng.Flush(cf); err != nil {
		t.Fatalf("flush: %v", err)
	}

	tables, err := eng.(*cedarEngine).Tables(cf)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}

	// decode straight off the table's property block
	props, err := mvcc.DecodeUserProperties(tables[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if props.MinTS != 2 || props.MaxTS != 6 {
		t.Errorf("expected ts range [2,6], got [%d,%d]", props.MinTS, props.MaxTS)
	}
	if props.NumKeys != 3 || props.NumPuts != 2 || props.NumDeletes != 1 {
		t.Errorf("unexpected counters: %+v", props)
	}
}

func TestTablePrefixIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.sst")

	transform := keys.NewFixedPrefixTransform(2)
	entries := []tableEntry{
		{key: []byte("aa1"), value: []byte("v"), kind: engine.EntryPut, seq: 1},
		{key: []byte("aa2"), value: []byte("v"), kind: engine.EntryPut, seq: 2},
		{key: []byte("bb1"), value: []byte("v"), kind: engine.EntryPut, seq: 3},
	}
	if err := writeTable(path, entries, 1, nil, transform); err != nil {
		t.Fatalf("write: %v", err)
	}

	table, err := OpenTable(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", table.Len())
	}

	if !table.MayContainPrefix([]byte("aa")) || !table.MayContainPrefix([]byte("bb")) {
		t.Error("expected stored prefixes to be reported as present")
	}
	if table.MayContainPrefix([]byte("zz")) {
		t.Error("expected unknown prefix to be ruled out")
	}

	if _, _, ok := table.Get([]byte("aa2")); !ok {
		t.Error("expected point lookup to find aa2")
	}
	if _, _, ok := table.Get([]byte("aa3")); ok {
		t.Error("expected point lookup to miss aa3")
	}
}

func TestWriteBufferTriggersFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine")

	cfs := []engine.CFDescriptor{
		engine.NewCFDescriptor(engine.DefaultColumnFamily, &engine.CFOptions{WriteBufferSize: 32}),
	}
	eng, err := Driver{}.Open(createOpts(), path, cfs)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer eng.Close()

	cf := engine.DefaultColumnFamily
	for i := 0; i < 4; i++ {
		if err := eng.Put(cf, []byte{byte('a' + i)}, []byte("0123456789abcdef")); err != nil {
			t.Fatal(err)
		}
	}

	tables, err := eng.(*cedarEngine).Tables(cf)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) == 0 {
		t.Error("expected a full write buffer to trigger a flush")
	}
}

func TestFlushKeepsConcurrentOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine")

	eng, err := Driver{}.Open(createOpts(), path, defaultCFs())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer eng.Close()

	cf := engine.DefaultColumnFamily
	if err := eng.Put(cf, []byte("k"), []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := eng.Flush(cf); err != nil {
		t.Fatal(err)
	}

	// an empty memtable flush is a no-op
	if err := eng.Flush(cf); err != nil {
		t.Fatal(err)
	}

	if err := eng.Put(cf, []byte("k"), []byte("v2")); err != nil {
		t.Fatal(err)
	}
	value, loaded, err := eng.Get(cf, []byte("k"))
	if err != nil || !loaded {
		t.Fatalf("expected value, got loaded=%v err=%v", loaded, err)
	}
	if !bytes.Equal(value, []byte("v2")) {
		t.Errorf("expected newest value v2, got %q", value)
	}
}
