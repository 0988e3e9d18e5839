// Package sink writes tab-separated result rows shared by concurrent workers.
package sink

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/klauspost/pgzip"

	"blastfasta/internal/errs"
)

// ErrClosed is returned by WriteRow after Close.
var ErrClosed = errors.New("sink is closed")

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe.
// Downstream consumers (like `head`) may close early.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}

var fieldCleaner = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// TSV serializes rows to one destination. Each WriteRow is atomic.
type TSV struct {
	mu      sync.Mutex
	bw      *bufio.Writer
	closers []io.Closer
	name    string
	rows    int64
	closed  bool
}

// Create truncates or creates path. "-" writes to stdout; a .gz suffix
// compresses the output.
func Create(path string) (*TSV, error) {
	if path == "-" {
		return New(os.Stdout, "<stdout>"), nil
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, errs.Wrapf(err, errs.KindOutputUnwritable, "create output %s", path)
	}
	if strings.HasSuffix(path, ".gz") {
		gw := pgzip.NewWriter(fh)
		s := New(gw, path)
		s.closers = []io.Closer{gw, fh}
		return s, nil
	}
	s := New(fh, path)
	s.closers = []io.Closer{fh}
	return s, nil
}

// New wraps w. Close flushes but does not close w.
func New(w io.Writer, name string) *TSV {
	return &TSV{bw: bufio.NewWriterSize(w, 64<<10), name: name}
}

// WriteRow writes fields joined by tabs as one line. Tabs and line breaks
// inside a field become spaces so the field count is preserved.
func (s *TSV) WriteRow(fields ...string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('\t')
		}
		b.WriteString(fieldCleaner.Replace(f))
	}
	b.WriteByte('\n')
	line := b.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := s.bw.WriteString(line); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Rows is the number of rows written.
func (s *TSV) Rows() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Close flushes buffered rows and releases the destination. Safe to call more
// than once; a broken pipe is not reported.
func (s *TSV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.bw.Flush()
	if IsBrokenPipe(err) {
		err = nil
	}
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return errs.Wrapf(err, errs.KindResourceCloseFailed, "close output %s", s.name)
	}
	return nil
}
