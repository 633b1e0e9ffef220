// Package registry provides the named quantity handlers the resolver
// dispatches to.
//
// There is one Registry per quantity Kind (field, radial profile,
// time-averaged profile, time series). The four are bundled in a Set that is
// built once at startup by calling every Module's Register method, and is then
// handed explicitly to the resolver. Registration is last-write-wins: the
// previous handler, if any, is returned and the replacement is logged so that
// name collisions stay visible.
package registry
