// Package resilience provides the concurrency-limiting primitive used by the
// engine's dispatcher and blocking-I/O pools.
//
// A Bulkhead bounds how many tasks run at once. Callers either run work
// inline with Execute, or hand it to a fresh goroutine with Go once a slot
// has been admitted:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "dispatch", MaxConcurrent: 64})
//	if err := bh.Go(ctx, func() { serve(call) }); err != nil {
//	    // not admitted: ErrBulkheadFull, ErrBulkheadTimeout or ctx.Err()
//	}
package resilience
