package fasta

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/pgzip"

	"blastfasta/internal/errs"
)

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// openInput validates path and returns a reader over its (possibly gzipped)
// content. "-" is stdin. Gzip is detected by magic number (1F 8B) or .gz suffix.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return wrapGzip(bufio.NewReader(os.Stdin), io.NopCloser(nil), false)
	}
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, errs.Wrapf(err, errs.KindInputNotFound, "input does not exist: %s", path)
	case err != nil:
		return nil, errs.Wrapf(err, errs.KindInputUnreadable, "input cannot be read: %s", path)
	case st.IsDir():
		return nil, errs.Newf(errs.KindInputIsDirectory, "input is a directory: %s", path)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrapf(err, errs.KindInputUnreadable, "input cannot be read: %s", path)
	}
	rc, err := wrapGzip(bufio.NewReader(fh), fh, strings.HasSuffix(path, ".gz"))
	if err != nil {
		_ = fh.Close()
		return nil, errs.Wrapf(err, errs.KindInputUnreadable, "input cannot be decompressed: %s", path)
	}
	return rc, nil
}

func wrapGzip(br *bufio.Reader, under io.Closer, force bool) (io.ReadCloser, error) {
	sig, _ := br.Peek(2)
	if !force && !(len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b) {
		return &multiReadCloser{Reader: br, closers: []io.Closer{under}}, nil
	}
	gr, err := pgzip.NewReader(br)
	if err != nil {
		return nil, err
	}
	return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, under}}, nil
}
