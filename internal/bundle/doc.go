// Package bundle holds the keyed metadata collection at the heart of
// scorecache.
//
// A Bundle maps canonical keys (see keycodec) to immutable Entry values and
// supports set algebra, field-scoped search, incremental rebuilds from
// source paths, filesystem validation and snapshot persistence. Named
// bundles persist to one snapshot file per namespace, located by a Locator;
// anonymous bundles (results of search and set operations) live only in
// memory.
//
// Bundles are not safe for concurrent mutation. A rebuild fans derivation
// out to a worker pool but merges every result on the calling goroutine.
// Registry hands out one shared Bundle per namespace.
package bundle
