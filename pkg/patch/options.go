package patch

// Comparator reports whether two leaf values are equal. Values that compare
// equal are left untouched in the target.
type Comparator func(a, b any) bool

// KeyTransform maps a source key to the key used in the target.
type KeyTransform func(key string) string

// ArrayMode selects how array values are reconciled.
type ArrayMode int

const (
	// ArraysIndexWise patches arrays position by position (default).
	ArraysIndexWise ArrayMode = iota

	// ArraysReplace replaces the whole target array when any element differs.
	ArraysReplace
)

// String returns the mode name used in logs.
func (m ArrayMode) String() string {
	switch m {
	case ArraysIndexWise:
		return "index-wise"
	case ArraysReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Options controls a reconciliation. It is built once with NewOptions and
// never changes while a patch is running.
type Options struct {
	// KeyTransform maps source keys to target keys. Nil keeps keys as-is.
	// Source keys that map to the same target key are applied in sorted
	// order, so the last one in byte order wins.
	KeyTransform KeyTransform

	// Recurse enables descent into nested documents.
	// Default: true
	Recurse bool

	// AllowNull propagates nil source values. When false, nil is skipped.
	// Default: true
	AllowNull bool

	// Arrays is the array reconciliation strategy.
	// Default: ArraysIndexWise
	Arrays ArrayMode

	// Compare decides leaf equality.
	// Default: SameValue
	Compare Comparator
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the default reconciliation options.
func DefaultOptions() Options {
	return Options{
		Recurse:   true,
		AllowNull: true,
		Arrays:    ArraysIndexWise,
		Compare:   SameValue,
	}
}

// NewOptions applies opts on top of DefaultOptions.
// It panics with a *ProgrammingError when the result is unusable.
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.mustValidate()
	return o
}

// WithKeyTransform maps source keys before they are looked up in the target.
func WithKeyTransform(fn KeyTransform) Option {
	return func(o *Options) {
		o.KeyTransform = fn
	}
}

// WithRecurse toggles recursion into nested documents. With recursion off,
// nested documents are compared by reference and replaced wholesale.
func WithRecurse(recurse bool) Option {
	return func(o *Options) {
		o.Recurse = recurse
	}
}

// WithAllowNull toggles propagation of nil source values.
func WithAllowNull(allow bool) Option {
	return func(o *Options) {
		o.AllowNull = allow
	}
}

// WithReplaceArrays selects ArraysReplace when true and ArraysIndexWise
// otherwise.
func WithReplaceArrays(replace bool) Option {
	return func(o *Options) {
		if replace {
			o.Arrays = ArraysReplace
		} else {
			o.Arrays = ArraysIndexWise
		}
	}
}

// WithComparator overrides leaf equality.
func WithComparator(cmp Comparator) Option {
	return func(o *Options) {
		o.Compare = cmp
	}
}

func (o Options) mustValidate() {
	if o.Compare == nil {
		panic(&ProgrammingError{Op: "options", Message: "comparator must not be nil"})
	}
	if o.Arrays != ArraysIndexWise && o.Arrays != ArraysReplace {
		panic(&ProgrammingError{Op: "options", Message: "unknown array mode " + o.Arrays.String()})
	}
}
