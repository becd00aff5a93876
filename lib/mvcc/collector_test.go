package mvcc

import (
	"testing"

	"github.com/ValentinKolb/mvKV/lib/engine"
	"github.com/ValentinKolb/mvKV/lib/keys"
)

// dataKey builds a namespaced, versioned key the way the store writes them.
func dataKey(logical string, ts uint64) []byte {
	return keys.DataKey(keys.EncodeVersionedKey([]byte(logical), ts))
}

func TestCollector(t *testing.T) {
	cases := []struct {
		key  string
		ts   uint64
		kind engine.EntryKind
	}{
		{"ab", 2, engine.EntryPut},
		{"ab", 0, engine.EntryDelete},
		{"cd", 4, engine.EntryDelete},
		{"cd", 3, engine.EntryPut},
		{"ef", 6, engine.EntryPut},
		{"gh", 7, engine.EntryDelete},
	}

	c := NewCollector()
	for _, entry := range cases {
		c.Add(dataKey(entry.key, entry.ts), []byte{0}, entry.kind, 0, 0)
	}

	props, err := DecodeUserProperties(PropertyMapLookup(c.Finish()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if props.MinTS != 0 {
		t.Errorf("expected MinTS 0, got %d", props.MinTS)
	}
	if props.MaxTS != 7 {
		t.Errorf("expected MaxTS 7, got %d", props.MaxTS)
	}
	if props.NumKeys != 4 {
		t.Errorf("expected 4 distinct keys, got %d", props.NumKeys)
	}
	if props.NumPuts != 3 {
		t.Errorf("expected 3 puts, got %d", props.NumPuts)
	}
	if props.NumDeletes != 3 {
		t.Errorf("expected 3 deletes, got %d", props.NumDeletes)
	}
	if props.NumCorrupts != 0 {
		t.Errorf("expected 0 corrupts, got %d", props.NumCorrupts)
	}
	if props.NumVersions() != 6 {
		t.Errorf("expected 6 versions, got %d", props.NumVersions())
	}
}

func TestCollectorIgnoresOtherNamespaces(t *testing.T) {
	c := NewCollector()
	c.Add([]byte("raft-state-key"), []byte("v"), engine.EntryPut, 0, 0)

	props, err := DecodeUserProperties(PropertyMapLookup(c.Finish()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if props != NewUserProperties() {
		t.Errorf("expected untouched accumulator, got %+v", props)
	}
}

func TestCollectorCountsCorruptKeys(t *testing.T) {
	c := NewCollector()

	// valid entry first, then a data key too short to carry a timestamp
	c.Add(dataKey("ab", 5), []byte("v"), engine.EntryPut, 0, 0)
	c.Add(keys.DataKey([]byte("bad")), []byte("v"), engine.EntryPut, 0, 0)

	props, err := DecodeUserProperties(PropertyMapLookup(c.Finish()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if props.NumCorrupts != 1 {
		t.Errorf("expected 1 corrupt entry, got %d", props.NumCorrupts)
	}
	// the corrupt entry must not leak into any other counter
	if props.NumKeys != 1 || props.NumPuts != 1 || props.NumDeletes != 0 {
		t.Errorf("expected counters untouched by corrupt entry, got %+v", props)
	}
	if props.MinTS != 5 || props.MaxTS != 5 {
		t.Errorf("expected timestamps untouched by corrupt entry, got %+v", props)
	}
}

func TestCollectorOtherEntryKind(t *testing.T) {
	c := NewCollector()
	c.Add(dataKey("ab", 1), []byte("v"), engine.EntryOther, 0, 0)

	props, err := DecodeUserProperties(PropertyMapLookup(c.Finish()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// merge-style operands count towards keys and timestamps but not versions
	if props.NumKeys != 1 {
		t.Errorf("expected 1 key, got %d", props.NumKeys)
	}
	if props.NumVersions() != 0 {
		t.Errorf("expected 0 versions, got %d", props.NumVersions())
	}
}

func TestCollectorFactory(t *testing.T) {
	f := NewCollectorFactory()

	a := f.Create()
	b := f.Create()
	if a == b {
		t.Error("expected a fresh collector per file-build job")
	}

	a.Add(dataKey("ab", 1), []byte("v"), engine.EntryPut, 0, 0)
	props, err := DecodeUserProperties(PropertyMapLookup(b.Finish()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if props != NewUserProperties() {
		t.Errorf("expected collectors to share no state, got %+v", props)
	}
}
