// Package metric provides Prometheus metrics for tlsrest.
//
//   - prometheus.go: registry and the per-component metric groups
//   - server.go: optional /metrics HTTP endpoint
//
// Every group method is safe on a nil receiver so components can run
// without metrics (tests, embedded use).
package metric
