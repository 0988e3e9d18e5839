package pipeline

import (
	"blastfasta/internal/fasta"
	"blastfasta/internal/search"
)

// Source is the minimal capability the driver needs from a sequence reader.
// *fasta.Reader satisfies it.
type Source interface {
	Next() (fasta.Sequence, error)
	Count() int
	Close() error
}

// Sink receives one row per record with a hit. *sink.TSV satisfies it.
type Sink interface {
	WriteRow(fields ...string) error
	Rows() int64
	Close() error
}

// WorkItem pairs one sequence with the database to search and the sink that
// takes its row. The pool assigns its sequence number (pool.Task.Seq).
type WorkItem struct {
	Sequence fasta.Sequence
	Database search.Database
	sink     Sink
}
