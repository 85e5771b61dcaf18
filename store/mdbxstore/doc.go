// Package mdbxstore benchmarks libmdbx, the memory-mapped B+tree used by
// Erigon. The engine is only registered in cgo builds.
package mdbxstore
