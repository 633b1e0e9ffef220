// Package labeled implements immutable n-dimensional arrays whose axes carry
// a name and a sequence of labels.
//
// An Array is either materialized (*Dense) or a lazy node built by one of the
// operations of this package (Xs, Derived, Apply, Collapse, Mean, Slabbed,
// Stack, MapAxis, Broadcast). Lazy nodes push Take down to their sources, so
// evaluating a restricted range of a node only reads that range from the
// underlying data. Slabbed uses this to evaluate long axes in fixed-size
// chunks and keep the peak memory bounded.
package labeled
