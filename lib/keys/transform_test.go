package keys

import (
	"bytes"
	"testing"
)

func TestFixedPrefixTransform(t *testing.T) {
	tr := NewFixedPrefixTransform(3)

	if tr.InDomain([]byte("ab")) {
		t.Error("expected key shorter than the prefix to be out of domain")
	}
	if !tr.InDomain([]byte("abc")) {
		t.Error("expected key of prefix length to be in domain")
	}
	if got := tr.Transform([]byte("abcdef")); !bytes.Equal(got, []byte("abc")) {
		t.Errorf("expected prefix %q, got %q", "abc", got)
	}
	if got := tr.Transform([]byte("abc")); !bytes.Equal(got, []byte("abc")) {
		t.Errorf("expected prefix %q, got %q", "abc", got)
	}
	if !tr.InRange([]byte("x")) {
		t.Error("expected InRange to always return true")
	}
}

func TestFixedSuffixTransform(t *testing.T) {
	tr := NewFixedSuffixTransform(8)

	if tr.InDomain([]byte("1234567")) {
		t.Error("expected key shorter than the suffix to be out of domain")
	}
	if !tr.InDomain([]byte("12345678")) {
		t.Error("expected key of suffix length to be in domain")
	}
	if got := tr.Transform([]byte("key:12345678")); !bytes.Equal(got, []byte("key:")) {
		t.Errorf("expected %q, got %q", "key:", got)
	}
	if got := tr.Transform([]byte("12345678")); len(got) != 0 {
		t.Errorf("expected empty transform output, got %q", got)
	}
	if !tr.InRange([]byte("x")) {
		t.Error("expected InRange to always return true")
	}
}

func TestFixedSuffixTransformGroupsVersions(t *testing.T) {
	// all versions of one logical key must map to the same output
	tr := NewFixedSuffixTransform(8)
	a := tr.Transform(EncodeVersionedKey([]byte("k"), 1))
	b := tr.Transform(EncodeVersionedKey([]byte("k"), 99))
	if !bytes.Equal(a, b) {
		t.Errorf("expected identical transform outputs, got %q and %q", a, b)
	}
}

func TestNoopTransform(t *testing.T) {
	tr := NewNoopTransform()

	key := []byte("anything")
	if !tr.InDomain(key) || !tr.InDomain(nil) {
		t.Error("expected noop transform to accept every key")
	}
	if got := tr.Transform(key); !bytes.Equal(got, key) {
		t.Errorf("expected identity, got %q", got)
	}
	if !tr.InRange(key) {
		t.Error("expected InRange to always return true")
	}
}
