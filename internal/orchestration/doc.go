// Package orchestration drives a benchmark run: it partitions the range,
// starts one worker per sub-range, relays their progress to a reporter, and
// joins them once they have all stopped. It decouples the run from its
// presentation via the ProgressReporter and ResultPresenter interfaces.
package orchestration
