package scan

import (
	"runtime"
	"sync"
)

// ScanParallel partitions the scan range across workers and runs the
// sub-ranges concurrently. Each worker scans a contiguous disjoint span in
// ascending offset order and the per-worker results are concatenated in span
// order, so the output is identical to ScanAll for the same inputs.
//
// workers <= 0 selects GOMAXPROCS. The buffer is read-only for the whole
// operation; no coordination beyond the final join is needed.
func ScanParallel(buf []byte, start int, pred Predicate, workers int) []Candidate {
	if pred == nil {
		pred = DefaultPredicate
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := Windows(buf, start)
	if n == 0 {
		return nil
	}
	if start < 0 {
		start = 0
	}
	if workers > n {
		workers = n
	}

	// Split the window offsets into near-equal contiguous spans. A worker's
	// span covers window starts [lo, hi); the window body may read past hi,
	// which is fine because offsets are starts, not extents.
	results := make([][]Candidate, workers)
	per := n / workers
	extra := n % workers

	var wg sync.WaitGroup
	lo := start
	for w := 0; w < workers; w++ {
		count := per
		if w < extra {
			count++
		}
		hi := lo + count

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			var out []Candidate
			scanSpan(buf, lo, hi, pred, func(c Candidate) bool {
				out = append(out, c)
				return true
			})
			results[w] = out
		}(w, lo, hi)

		lo = hi
	}
	wg.Wait()

	var merged []Candidate
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}
