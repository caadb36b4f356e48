// Package benchmark measures the request path: tokenizing, dispatch,
// audit appends, the worker pool and full loopback round trips.
//
//	go test -run '^$' -bench . -benchmem ./internal/tests/benchmark/
//
// Most benchmarks repeat for each entry of WorkerCounts so scaling can be
// compared with benchstat.
package benchmark
