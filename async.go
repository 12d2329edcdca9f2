package annidx

import "github.com/hupe1980/annidx/task"

// Asynchronous variants of the mutating and querying operations. Each call
// copies its input buffers before returning, so the caller may reuse them
// immediately. Futures submitted through the same index complete in
// submission order, even when their execution interleaves on the pool.
//
// Whether the index is closed is decided when a task executes, not when it
// is submitted: a task queued behind a Close observes ErrClosed.

func copyFloats(s []float32) []float32 {
	c := make([]float32, len(s))
	copy(c, s)
	return c
}

// TrainAsync schedules Train on the index's pool.
func (ix *Index) TrainAsync(vectors []float32, count int) *task.Future[struct{}] {
	buf := copyFloats(vectors)
	return task.SubmitOrdered(ix.serial, func() (struct{}, error) {
		return struct{}{}, ix.Train(buf, count)
	})
}

// AddAsync schedules Add on the index's pool.
func (ix *Index) AddAsync(vectors []float32, count int) *task.Future[struct{}] {
	buf := copyFloats(vectors)
	return task.SubmitOrdered(ix.serial, func() (struct{}, error) {
		return struct{}{}, ix.Add(buf, count)
	})
}

// SearchAsync schedules Search on the index's pool.
func (ix *Index) SearchAsync(query []float32, k int, optFns ...SearchOption) *task.Future[*SearchResult] {
	buf := copyFloats(query)
	return task.SubmitOrdered(ix.serial, func() (*SearchResult, error) {
		return ix.Search(buf, k, optFns...)
	})
}

// SearchBatchAsync schedules SearchBatch on the index's pool.
func (ix *Index) SearchBatchAsync(queries []float32, nq, k int, optFns ...SearchOption) *task.Future[*SearchResult] {
	buf := copyFloats(queries)
	return task.SubmitOrdered(ix.serial, func() (*SearchResult, error) {
		return ix.SearchBatch(buf, nq, k, optFns...)
	})
}

// RangeSearchAsync schedules RangeSearch on the index's pool.
func (ix *Index) RangeSearchAsync(query []float32, radius float32, optFns ...SearchOption) *task.Future[*RangeResult] {
	buf := copyFloats(query)
	return task.SubmitOrdered(ix.serial, func() (*RangeResult, error) {
		return ix.RangeSearch(buf, radius, optFns...)
	})
}

// MergeFromAsync schedules MergeFrom on the target's pool.
func (ix *Index) MergeFromAsync(src *Index) *task.Future[struct{}] {
	return task.SubmitOrdered(ix.serial, func() (struct{}, error) {
		return struct{}{}, ix.MergeFrom(src)
	})
}
