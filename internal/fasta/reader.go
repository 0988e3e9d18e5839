// Package fasta parses FASTA files one record at a time.
package fasta

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"blastfasta/internal/errs"
)

// MalformedFunc is told about a run of non-header lines that appeared where a
// header was expected. line is the 1-based number of the first skipped line.
type MalformedFunc func(line, skipped int)

// Option customizes a Reader.
type Option func(*Reader)

// WithLogger sets the logger used by the default malformed-input report.
func WithLogger(l zerolog.Logger) Option { return func(r *Reader) { r.log = l } }

// WithMalformedHandler replaces the default malformed-input report.
func WithMalformedHandler(fn MalformedFunc) Option { return func(r *Reader) { r.onMalformed = fn } }

// Reader streams Sequences from a FASTA source. It keeps a single line of
// lookahead and never holds more than one record in memory.
type Reader struct {
	path string
	rc   io.ReadCloser
	br   *bufio.Reader

	look    string // next unconsumed line, valid when hasLook
	hasLook bool
	done    bool
	closed  bool

	lineNo int
	count  int

	log         zerolog.Logger
	onMalformed MalformedFunc
}

// Open validates and opens path ("-" for stdin) and primes the lookahead.
func Open(path string, opts ...Option) (*Reader, error) {
	rc, err := openInput(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(rc, opts...)
	r.path = path
	return r, nil
}

// NewReader wraps an already open source. Close closes rc.
func NewReader(rc io.ReadCloser, opts ...Option) *Reader {
	r := &Reader{
		rc:  rc,
		br:  bufio.NewReaderSize(rc, 64*1024),
		log: zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.onMalformed == nil {
		r.onMalformed = r.reportMalformed
	}
	return r
}

// Next returns the next record, or io.EOF once the input is exhausted. It
// keeps returning io.EOF on every later call, including after Close.
func (r *Reader) Next() (Sequence, error) {
	if r.closed {
		return Sequence{}, io.EOF
	}
	for {
		if err := r.seekHeader(); err != nil {
			return Sequence{}, err
		}
		if !r.hasLook {
			return Sequence{}, io.EOF
		}

		header := r.look
		headerLine := r.lineNo
		r.hasLook = false

		var res strings.Builder
		for {
			line, ok, err := r.readLine()
			if err != nil {
				return Sequence{}, err
			}
			if !ok {
				break
			}
			if isHeader(line) {
				r.look, r.hasLook = line, true
				break
			}
			res.WriteString(line)
		}

		name := strings.TrimSpace(header[1:])
		if name == "" {
			r.onMalformed(headerLine, 1)
			continue
		}
		r.count++
		return Sequence{Name: name, Residues: res.String()}, nil
	}
}

// seekHeader makes sure the lookahead is a header line, skipping (and
// reporting) anything else. Blank lines are skipped silently.
func (r *Reader) seekHeader() error {
	first, skipped := 0, 0
	defer func() {
		if skipped > 0 {
			r.onMalformed(first, skipped)
		}
	}()
	for {
		if !r.hasLook {
			line, ok, err := r.readLine()
			if err != nil || !ok {
				return err
			}
			r.look, r.hasLook = line, true
		}
		if isHeader(r.look) {
			return nil
		}
		if strings.TrimSpace(r.look) != "" {
			if skipped == 0 {
				first = r.lineNo
			}
			skipped++
		}
		r.hasLook = false
	}
}

// readLine returns the next line without its terminator. ok is false at EOF.
func (r *Reader) readLine() (string, bool, error) {
	if r.done {
		return "", false, nil
	}
	line, err := r.br.ReadString('\n')
	if err != nil && err != io.EOF {
		r.done = true
		return "", false, errs.Wrapf(err, errs.KindInputUnreadable, "read %s line %d", r.name(), r.lineNo+1)
	}
	if err == io.EOF {
		r.done = true
		if line == "" {
			return "", false, nil
		}
	}
	r.lineNo++
	if r.lineNo == 1 {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true, nil
}

func (r *Reader) reportMalformed(line, skipped int) {
	r.log.Warn().
		Str("kind", errs.KindInputMalformed.String()).
		Str("input", r.name()).
		Int("line", line).
		Int("skipped", skipped).
		Msg("fasta header expected; skipping to next record")
}

// Each calls fn for every remaining record, stopping early on ctx
// cancellation or when fn returns an error.
func (r *Reader) Each(ctx context.Context, fn func(Sequence) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
}

// Count is the number of records returned so far.
func (r *Reader) Count() int { return r.count }

// Close releases the source. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.hasLook = false
	r.done = true
	if r.rc == nil {
		return nil
	}
	if err := r.rc.Close(); err != nil {
		return errs.Wrapf(err, errs.KindResourceCloseFailed, "close %s", r.name())
	}
	return nil
}

func (r *Reader) name() string {
	if r.path == "" {
		return "<stream>"
	}
	return r.path
}

func isHeader(line string) bool { return len(line) > 0 && line[0] == '>' }
