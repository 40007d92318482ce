// Package bench holds the unit of work of the benchmark: the partitioning of
// the integer range into per-worker slices, the shared deadline and stop
// signal, the per-worker result collectors, and the counting task itself.
//
// Nothing in this package starts goroutines or processes. The worker package
// decides where a Task runs; this package only decides what it does.
package bench
