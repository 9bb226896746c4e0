// Package patch reconciles freshly fetched snapshots into long-lived state
// trees in place.
//
// # Overview
//
// The dashboard keeps one mutable state tree per live view. Every poll cycle
// produces a brand-new snapshot; replacing the whole tree would invalidate
// every observer holding a reference into it. Patch instead walks the
// snapshot and rewrites only the leaves that actually differ, so any subtree
// whose values are unchanged keeps its identity.
//
// Two forms are supported:
//
//   - Document trees (map[string]any, as produced by encoding/json) are
//     reconciled by Patch, which recurses into nested documents and applies
//     the configured array strategy to []any values.
//   - Closed typed records reconcile themselves field by field using the
//     Scalar, ScalarFunc and Slice helpers, sharing the same Options.
//
// # Usage
//
//	state := patch.Document{"cache": patch.Document{"hits": 1.0}}
//	changed := patch.Patch(state, patch.Document{"cache": patch.Document{"hits": 2.0}})
//	// changed == true, state["cache"] is the same map as before
//
//	// snake_case API keys into camelCase state keys
//	patch.Patch(state, snapshot, patch.WithKeyTransform(patch.SnakeToCamel))
//
// # Semantics
//
//   - A key missing from the source is a no-op, never a deletion.
//   - A nil source value is written as a scalar unless WithAllowNull(false).
//   - Only plain documents are recursed into. Structs, time values and maps
//     of any other type are opaque scalars.
//   - Arrays are patched index-wise by default: differing elements are
//     overwritten, the destination is truncated or extended to the source
//     length, and a length difference alone counts as a change.
//     WithReplaceArrays(true) swaps the whole array on any difference.
//   - Scalars are compared with SameValue unless another Comparator is set.
//
// Source values are never aliased into the target: nested documents and
// arrays written into the target are copies, so a snapshot stays immutable
// after it has been patched in.
//
// Snapshots are assumed to be acyclic. A cyclic document recurses without
// bound.
//
// # Thread Safety
//
// Patch performs no synchronization and never yields mid-mutation. Callers
// that share a state tree with readers must hold their own lock for the
// duration of the call.
package patch
