// Package pipeline runs independent search attempts on a pool of
// goroutines and hands every outcome to a single collector callback.
//
// The only contract to implement is Searcher (Search).
// This keeps the pipeline swappable and testable.
package pipeline
