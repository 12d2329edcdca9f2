// Package annidx provides a thread-safe handle over pluggable
// nearest-neighbor search backends (flat, inverted-file, and HNSW graph).
//
// Every operation on a handle is serialized by a single lock, so the
// underlying backend is never touched concurrently. Asynchronous variants
// offload work to a task pool while preserving per-handle completion order.
// Snapshots are self-describing, so an index can be reconstructed from a
// byte buffer, a file, or a blob store without knowing how it was built.
//
//	ix, err := annidx.New(128, "HNSW32", distance.MetricL2)
//	if err != nil { ... }
//	defer ix.Close()
//
//	if err := ix.Add(vectors, n); err != nil { ... }
//	res, err := ix.Search(query, 10)
package annidx
