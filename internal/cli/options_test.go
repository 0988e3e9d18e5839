// internal/cli/options_test.go
package cli

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"strings"
	"testing"
	"time"

	"blastfasta/internal/config"
)

func newFS() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func mustParse(t *testing.T, args ...string) Options {
	t.Helper()
	opts, err := ParseArgs(newFS(), args)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	return opts
}

func TestInputAndInterleavedFlags(t *testing.T) {
	o := mustParse(t, "--db", "uniref50", "in.fa", "--max-workers", "4", "-q")
	if o.Input != "in.fa" || o.Database != "uniref50" || o.MaxWorkers != 4 || !o.Quiet {
		t.Errorf("bad parse %+v", o)
	}
}

func TestStdinInput(t *testing.T) {
	if o := mustParse(t, "-", "-o", "-"); o.Input != "-" || o.Output != "-" {
		t.Errorf("bad parse %+v", o)
	}
}

func TestDefaultsMatchConfig(t *testing.T) {
	o := mustParse(t, "in.fa")
	d := config.Default()
	if o.Database != d.Database || o.Output != d.Output || o.QueueCapacity != d.QueueCapacity ||
		o.DrainTimeout != d.DrainTimeout || o.IdleTimeout != d.IdleTimeout {
		t.Errorf("defaults drifted: %+v", o)
	}
}

func TestErrorNoInput(t *testing.T) {
	if _, err := ParseArgs(newFS(), []string{"--db", "uniref90"}); err == nil {
		t.Fatalf("expected error when input missing")
	}
}

func TestErrorTwoInputs(t *testing.T) {
	if _, err := ParseArgs(newFS(), []string{"a.fa", "b.fa"}); err == nil {
		t.Fatalf("expected error with two inputs")
	}
}

func TestHelpAndVersion(t *testing.T) {
	if _, err := ParseArgs(newFS(), []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("want ErrHelp, got %v", err)
	}
	o, err := ParseArgs(newFS(), []string{"--version"})
	if err != nil || !o.Version {
		t.Fatalf("version: %+v %v", o, err)
	}
}

func TestBadDuration(t *testing.T) {
	if _, err := ParseArgs(newFS(), []string{"--idle-timeout", "soon", "in.fa"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyOnlySetFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Database = "uniref100" // as if from a config file
	cfg.Email = "file@example.org"

	o := mustParse(t, "in.fa", "--email", "flag@example.org", "--poll-interval", "250ms", "-o", "x.tsv")
	o.Apply(&cfg)

	if cfg.Database != "uniref100" {
		t.Errorf("unset flag overrode config: %q", cfg.Database)
	}
	if cfg.Email != "flag@example.org" || cfg.PollInterval != 250*time.Millisecond || cfg.Output != "x.tsv" {
		t.Errorf("set flags not applied: %+v", cfg)
	}
}

func TestUsageMentionsFlags(t *testing.T) {
	fs := NewFlagSet("blastfasta")
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	_, _ = ParseArgs(fs, []string{"-h"})
	fs.Usage()
	for _, want := range []string{"--db", "--queue-capacity", "--drain-timeout", "[fastaBlast.tsv]", "[15m0s]"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}
