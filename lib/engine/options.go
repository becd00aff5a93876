package engine

// --------------------------------------------------------------------------
// Engine Options
// --------------------------------------------------------------------------

// Options configures an engine instance at open time.
type Options struct {
	// CreateIfMissing controls whether Open creates the engine directory
	// structure when nothing exists at the path yet.
	CreateIfMissing bool

	// CollectorFactories are run over every file-build job (flush or
	// compaction), one fresh collector per factory per file.
	CollectorFactories []TablePropertiesCollectorFactory

	// PrefixTransform is the single active key-domain transform of the
	// engine's indexing layer, nil for none.
	PrefixTransform SliceTransform
}

// DefaultOptions returns the default engine options.
func DefaultOptions() *Options {
	return &Options{CreateIfMissing: false}
}

// AddCollectorFactory registers a property collector factory. Registration
// happens once, before the engine is opened.
func (o *Options) AddCollectorFactory(f TablePropertiesCollectorFactory) {
	o.CollectorFactories = append(o.CollectorFactories, f)
}

// --------------------------------------------------------------------------
// Column Family Options
// --------------------------------------------------------------------------

// CFOptions is the per-column-family configuration blob. It is passed
// through to the engine implementation and not interpreted by the layers
// above it.
type CFOptions struct {
	// WriteBufferSize is the number of bytes to accumulate in memory before
	// a column family becomes a flush candidate (0 = engine default).
	WriteBufferSize int
}

// DefaultCFOptions returns the default column family options.
func DefaultCFOptions() *CFOptions {
	return &CFOptions{}
}

// --------------------------------------------------------------------------
// Column Family Descriptors
// --------------------------------------------------------------------------

// CFDescriptor names one requested column family together with its options.
// A nil Options value means engine defaults.
type CFDescriptor struct {
	Name    string
	Options *CFOptions
}

// NewCFDescriptor creates a descriptor for the given column family name.
func NewCFDescriptor(name string, opts *CFOptions) CFDescriptor {
	return CFDescriptor{Name: name, Options: opts}
}

// DescriptorNames returns the column family names of a descriptor list in
// descriptor order.
func DescriptorNames(cfs []CFDescriptor) []string {
	names := make([]string, len(cfs))
	for i, cf := range cfs {
		names[i] = cf.Name
	}
	return names
}
