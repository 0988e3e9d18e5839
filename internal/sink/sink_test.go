package sink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/klauspost/pgzip"

	"blastfasta/internal/errs"
)

func TestWriteRow_Format(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, "buf")
	if err := s.WriteRow("seq1", "UniRef90_P12345", "Cluster: Kinase\tA"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	want := "seq1\tUniRef90_P12345\tCluster: Kinase A\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestWriteRow_ConcurrentRowsNeverInterleave(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf, "buf")
	const n = 500
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("seq%d", i)
			if err := s.WriteRow(name, "hit-"+name, strings.Repeat("x", i%97)); err != nil {
				t.Errorf("write: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != n || s.Rows() != n {
		t.Fatalf("lines=%d rows=%d", len(lines), s.Rows())
	}
	seen := map[string]bool{}
	for _, l := range lines {
		f := strings.Split(l, "\t")
		if len(f) != 3 || f[1] != "hit-"+f[0] {
			t.Fatalf("malformed line %q", l)
		}
		seen[f[0]] = true
	}
	if len(seen) != n {
		t.Fatalf("distinct rows=%d", len(seen))
	}
}

func TestClose_IdempotentAndRejectsLateWrites(t *testing.T) {
	s := New(io.Discard, "discard")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteRow("a", "b", "c"); err != ErrClosed {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

type pipeWriter struct{}

func (pipeWriter) Write([]byte) (int, error) { return 0, syscall.EPIPE }

func TestClose_BrokenPipeIsNotAnError(t *testing.T) {
	s := New(pipeWriter{}, "pipe")
	_ = s.WriteRow("a", "b", "c")
	if err := s.Close(); err != nil {
		t.Fatalf("broken pipe should be swallowed, got %v", err)
	}
}

func TestCreate_FileAndGzip(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "out.tsv")
	s, err := Create(plain)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = s.WriteRow("a", "b", "c")
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if b, _ := os.ReadFile(plain); string(b) != "a\tb\tc\n" {
		t.Fatalf("plain=%q", b)
	}

	gz := filepath.Join(dir, "out.tsv.gz")
	s, err = Create(gz)
	if err != nil {
		t.Fatalf("create gz: %v", err)
	}
	_ = s.WriteRow("x", "y", "z")
	if err := s.Close(); err != nil {
		t.Fatalf("close gz: %v", err)
	}
	fh, err := os.Open(gz)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	zr, err := pgzip.NewReader(fh)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	b, _ := io.ReadAll(zr)
	if string(b) != "x\ty\tz\n" {
		t.Fatalf("gz=%q", b)
	}
}

func TestCreate_MissingDirIsUnwritable(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "out.tsv"))
	if !errs.Is(err, errs.KindOutputUnwritable) {
		t.Fatalf("err=%v kind=%s", err, errs.KindOf(err))
	}
}
