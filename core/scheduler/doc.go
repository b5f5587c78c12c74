// Package scheduler runs (mode, objective) jobs end to end: it assembles
// the network, applies the retry policy of the solver runner, analyses the
// schedule and reports the outcome on the event bus, the run log and the
// tracer. Batches run concurrently and one failing job never aborts the
// others.
package scheduler
