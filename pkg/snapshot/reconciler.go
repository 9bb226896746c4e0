package snapshot

import "reservoir-hq/livesync/pkg/patch"

// Record is a typed snapshot that can reconcile itself.
type Record[T any] interface {
	Reconcile(src T, o patch.Options) bool
	Clone() T
}

// RecordReconciler adapts a Record type to the poll scheduler: the first
// snapshot is adopted as a private copy, later ones are patched into it.
type RecordReconciler[T Record[T]] struct {
	Options patch.Options
}

// NewRecordReconciler returns a RecordReconciler with opts applied on top of
// the default patch options.
func NewRecordReconciler[T Record[T]](opts ...patch.Option) RecordReconciler[T] {
	return RecordReconciler[T]{Options: patch.NewOptions(opts...)}
}

// Adopt returns a copy of src to become the live state.
func (r RecordReconciler[T]) Adopt(src T) T {
	return src.Clone()
}

// Reconcile patches src into dst.
func (r RecordReconciler[T]) Reconcile(dst, src T) bool {
	return dst.Reconcile(src, orDefault(r.Options))
}

// DocumentReconciler reconciles dynamic documents such as the config view.
type DocumentReconciler struct {
	Options patch.Options
}

// NewDocumentReconciler returns a DocumentReconciler with opts applied on
// top of the default patch options.
func NewDocumentReconciler(opts ...patch.Option) DocumentReconciler {
	return DocumentReconciler{Options: patch.NewOptions(opts...)}
}

// NewConfigReconciler reconciles the snake_case config document into a
// camelCase view.
func NewConfigReconciler() DocumentReconciler {
	return NewDocumentReconciler(patch.WithKeyTransform(patch.SnakeToCamel))
}

// Adopt builds the live document by patching src into an empty document, so
// the key transform applies from the very first snapshot.
func (r DocumentReconciler) Adopt(src patch.Document) patch.Document {
	doc := make(patch.Document, len(src))
	orDefault(r.Options).Patch(doc, src)
	return doc
}

// Reconcile patches src into dst.
func (r DocumentReconciler) Reconcile(dst, src patch.Document) bool {
	return orDefault(r.Options).Patch(dst, src)
}

// orDefault lets the zero value of a reconciler be used directly.
func orDefault(o patch.Options) patch.Options {
	if o.Compare == nil {
		return patch.DefaultOptions()
	}
	return o
}
