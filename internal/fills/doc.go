// Package fills derives the fill history views and dashboard charts from a
// snapshot of fill records.
//
// Everything here is a pure function of its input: nothing performs I/O,
// nothing keeps state between calls and the input slices are never mutated.
// Callers pass the current snapshot explicitly and treat the result as a new
// value.
package fills
