// Package logging provides the structured logger shared by the controller,
// the workers and the child processes. Entries are written by zerolog's
// console writer on stderr so stdout stays the benchmark report.
package logging
