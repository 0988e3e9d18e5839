// Package pipeline streams FASTA records through a bounded worker pool that
// issues one remote search per record, and writes the best hit of each to a
// shared sink.
//
// The contracts to implement are Source and Sink (see contract.go) plus
// search.Service. This keeps the driver swappable and testable.
package pipeline
