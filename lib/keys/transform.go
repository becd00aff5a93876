package keys

import "github.com/ValentinKolb/mvKV/lib/engine"

// --------------------------------------------------------------------------
// Fixed Prefix Transform
// --------------------------------------------------------------------------

// fixedPrefixTransform maps a key to its first prefixLen bytes.
type fixedPrefixTransform struct {
	prefixLen int
}

// NewFixedPrefixTransform returns a transform that maps a key to its first
// n bytes.
func NewFixedPrefixTransform(n int) engine.SliceTransform {
	return &fixedPrefixTransform{prefixLen: n}
}

func (t *fixedPrefixTransform) Name() string { return "mvkv.fixed-prefix-transform" }

func (t *fixedPrefixTransform) Transform(key []byte) []byte {
	return key[:t.prefixLen]
}

func (t *fixedPrefixTransform) InDomain(key []byte) bool {
	return len(key) >= t.prefixLen
}

func (t *fixedPrefixTransform) InRange(key []byte) bool { return true }

// --------------------------------------------------------------------------
// Fixed Suffix Transform
// --------------------------------------------------------------------------

// fixedSuffixTransform maps a key to everything except its trailing
// suffixLen bytes. Stripping the fixed-width version timestamp suffix this
// way makes all versions of one logical key map to the same transform
// output.
type fixedSuffixTransform struct {
	suffixLen int
}

// NewFixedSuffixTransform returns a transform that strips the trailing n
// bytes of a key.
func NewFixedSuffixTransform(n int) engine.SliceTransform {
	return &fixedSuffixTransform{suffixLen: n}
}

func (t *fixedSuffixTransform) Name() string { return "mvkv.fixed-suffix-transform" }

func (t *fixedSuffixTransform) Transform(key []byte) []byte {
	return key[:len(key)-t.suffixLen]
}

func (t *fixedSuffixTransform) InDomain(key []byte) bool {
	return len(key) >= t.suffixLen
}

func (t *fixedSuffixTransform) InRange(key []byte) bool { return true }

// --------------------------------------------------------------------------
// Noop Transform
// --------------------------------------------------------------------------

// noopTransform is the identity transform.
type noopTransform struct{}

// NewNoopTransform returns the identity transform.
func NewNoopTransform() engine.SliceTransform {
	return noopTransform{}
}

func (noopTransform) Name() string { return "mvkv.noop-transform" }

func (noopTransform) Transform(key []byte) []byte { return key }

func (noopTransform) InDomain(key []byte) bool { return true }

func (noopTransform) InRange(key []byte) bool { return true }
