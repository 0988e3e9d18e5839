// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"blastfasta/internal/app"
	"blastfasta/internal/search/searchstub"
)

func write(t *testing.T, name, data string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fn, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", fn, err)
	}
	return fn
}

func stub(t *testing.T, o searchstub.Options) string {
	t.Helper()
	srv := httptest.NewServer(searchstub.New(o))
	t.Cleanup(srv.Close)
	return srv.URL
}

func sortedLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	sort.Strings(lines)
	return lines
}

func TestEndToEnd_StdoutRows(t *testing.T) {
	fa := write(t, "in.fa", ">seq1\nMKT\n>seq2\nAAV\n")
	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		fa,
		"--endpoint", stub(t, searchstub.Options{}),
		"--poll-interval", "5ms",
		"-o", "-",
		"--log-level", "off",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("run exit %d, err=%s", code, errBuf.String())
	}
	got := sortedLines(out.String())
	want := []string{
		"seq1\tUNIREF90_STUBMKT\tStub cluster for MKT (n=3)",
		"seq2\tUNIREF90_STUBAAV\tStub cluster for AAV (n=3)",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("rows:\n got %q\nwant %q", got, want)
	}
	if !strings.Contains(errBuf.String(), "rows") {
		t.Fatalf("expected summary on stderr, got %q", errBuf.String())
	}
}

func TestEndToEnd_GzipInAndOut(t *testing.T) {
	var zbuf bytes.Buffer
	zw := gzip.NewWriter(&zbuf)
	_, _ = zw.Write([]byte(">a\nMKTAYIAKQR\n>b\nGGG\n"))
	_ = zw.Close()
	fa := write(t, "in.fa.gz", zbuf.String())
	outPath := filepath.Join(t.TempDir(), "hits.tsv.gz")

	var errBuf bytes.Buffer
	code := app.Run([]string{
		"--endpoint", stub(t, searchstub.Options{}),
		"--poll-interval", "5ms",
		"--db", "swissprot",
		"--out", outPath,
		"--quiet", "--log-level", "off",
		fa,
	}, io.Discard, &errBuf)
	if code != 0 {
		t.Fatalf("run exit %d, err=%s", code, errBuf.String())
	}

	fh, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	zr, err := gzip.NewReader(fh)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	b, _ := io.ReadAll(zr)
	got := sortedLines(string(b))
	if len(got) != 2 || !strings.HasPrefix(got[0], "a\tUNIPROTKB_SWISSPROT_STUBMKTAYIAK\t") {
		t.Fatalf("rows=%q", got)
	}
	if errBuf.Len() != 0 {
		t.Fatalf("quiet run wrote %q", errBuf.String())
	}
}

func TestEndToEnd_FailedSearchesStillExitZero(t *testing.T) {
	fa := write(t, "in.fa", ">ok\nMKT\n>bad\nBAD\n")
	var out, errBuf bytes.Buffer
	code := app.Run([]string{
		fa,
		"--endpoint", stub(t, searchstub.Options{Fail: func(s string) bool { return s == "BAD" }}),
		"--poll-interval", "5ms",
		"-o", "-",
		"--log-level", "off",
	}, &out, &errBuf)
	if code != 0 {
		t.Fatalf("partial output must exit 0, got %d: %s", code, errBuf.String())
	}
	if got := sortedLines(out.String()); len(got) != 1 || !strings.HasPrefix(got[0], "ok\t") {
		t.Fatalf("rows=%q", got)
	}
	if !strings.Contains(errBuf.String(), "failed 1") {
		t.Fatalf("summary=%q", errBuf.String())
	}
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		argv []string
		want int
	}{
		{"help", []string{"-h"}, 0},
		{"no args", nil, 0},
		{"version", []string{"--version"}, 0},
		{"unknown flag", []string{"--bogus", "x.fa"}, 2},
		{"missing input arg", []string{"--db", "uniref90"}, 2},
		{"bad database", []string{"--db", "pdb", "x.fa"}, 2},
		{"bad worker bounds", []string{"--min-workers", "9", "--max-workers", "2", "x.fa"}, 2},
		{"missing config file", []string{"--config", filepath.Join(dir, "nope.yaml"), "x.fa"}, 2},
		{"missing input file", []string{"--log-level", "off", "-q", "--endpoint", "http://127.0.0.1:1", filepath.Join(dir, "nope.fa")}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out, errBuf bytes.Buffer
			if code := app.Run(tc.argv, &out, &errBuf); code != tc.want {
				t.Fatalf("exit %d want %d; stderr=%s", code, tc.want, errBuf.String())
			}
		})
	}
}

func TestUnwritableOutputIsFatal(t *testing.T) {
	fa := write(t, "in.fa", ">x\nMKT\n")
	out := filepath.Join(t.TempDir(), "no-such-dir", "out.tsv")
	var stdout, errBuf bytes.Buffer
	code := app.Run([]string{"-q", "--log-format", "json", "--endpoint", stub(t, searchstub.Options{}), "-o", out, fa}, &stdout, &errBuf)
	if code != app.ExitFatal {
		t.Fatalf("exit %d; stderr=%s", code, errBuf.String())
	}
	for _, want := range []string{`"kind":"output_unwritable"`, `"op":"open output"`, `"message":"run failed"`} {
		if !strings.Contains(errBuf.String(), want) {
			t.Fatalf("missing %s in %s", want, errBuf.String())
		}
	}
}

func TestConfigFileAndEnv(t *testing.T) {
	fa := write(t, "in.fa", ">x\nMKT\n")
	cfgPath := write(t, "run.yaml", "database: uniref50\npoll_interval: 5ms\nlog_level: \"off\"\nquiet: true\noutput: \"-\"\n")
	t.Setenv("BLASTFASTA_ENDPOINT", stub(t, searchstub.Options{}))

	var out, errBuf bytes.Buffer
	if code := app.Run([]string{"--config", cfgPath, fa}, &out, &errBuf); code != 0 {
		t.Fatalf("exit %d: %s", code, errBuf.String())
	}
	if got := strings.TrimSpace(out.String()); !strings.HasPrefix(got, "x\tUNIREF50_STUBMKT\t") {
		t.Fatalf("row=%q", got)
	}
}
