// Package metrics records benchmark counters as Prometheus metrics and reads
// runtime memory statistics for the dashboard.
package metrics
