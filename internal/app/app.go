// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"blastfasta/internal/cli"
	"blastfasta/internal/config"
	"blastfasta/internal/errs"
	"blastfasta/internal/hostinfo"
	"blastfasta/internal/logger"
	"blastfasta/internal/pipeline"
	"blastfasta/internal/pool"
	"blastfasta/internal/search"
	"blastfasta/internal/search/httpsearch"
	"blastfasta/internal/sink"
	"blastfasta/internal/version"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitUsage       = 2
	ExitFatal       = 3
	ExitInterrupted = 130
)

// RunContext parses argv, runs one pipeline and returns the process exit code.
// Output "-" goes to stdout; logs and the summary go to stderr.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("blastfasta")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		argv = []string{"-h"}
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return printUsage(fs, outw, stderr, ExitOK)
		}
		_, _ = fmt.Fprintln(stderr, err)
		return printUsage(fs, outw, stderr, ExitUsage)
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "blastfasta version %s\n", version.Version)
		return flushed(outw, stderr, ExitOK)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitUsage
	}
	opts.Apply(&cfg)
	if err := config.Validate(cfg); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitUsage
	}
	db, _ := search.ParseDatabase(cfg.Database)

	lo := logger.FromEnv()
	lo.Level, lo.Format, lo.Writer, lo.Component = cfg.LogLevel, cfg.LogFormat, stderr, "blastfasta"
	log := logger.New(lo)
	log.Info().Object("host", hostinfo.Detect()).Str("version", version.Version).Msg("starting")

	svc := httpsearch.New(httpsearch.Options{
		BaseURL:      cfg.Endpoint,
		Email:        cfg.Email,
		PollInterval: cfg.PollInterval,
		MaxPolls:     cfg.MaxPolls,
		Logger:       logger.Named(log, "httpsearch"),
	})

	d := pipeline.New(pipeline.Config{
		Input:         opts.Input,
		Output:        cfg.Output,
		Database:      db,
		QueueCapacity: cfg.QueueCapacity,
		Pool: pool.Config{
			MinWorkers:  cfg.MinWorkers,
			MaxWorkers:  cfg.MaxWorkers,
			IdleTimeout: cfg.IdleTimeout,
			Parallelism: hostinfo.AvailableParallelism(),
		},
		DrainTimeout: cfg.DrainTimeout,
	}, svc,
		pipeline.WithLogger(log),
		pipeline.WithSinkOpener(func(path string) (pipeline.Sink, error) {
			if path == "-" {
				return sink.New(outw, "<stdout>"), nil
			}
			return sink.Create(path)
		}),
	)

	sum, runErr := d.Run(parent)
	if e := outw.Flush(); e != nil && !sink.IsBrokenPipe(e) {
		_, _ = fmt.Fprintln(stderr, e)
		return ExitFatal
	}
	if !cfg.Quiet {
		writeSummary(stderr, sum, cfg.Output)
	}

	switch {
	case runErr == nil:
		return ExitOK
	case errors.Is(runErr, context.Canceled) || parent.Err() != nil:
		return ExitInterrupted
	case errs.Is(runErr, errs.KindConfig):
		log.Error().Err(runErr).Msg("configuration rejected")
		return ExitUsage
	default:
		ev := log.Error().Err(runErr).Str("kind", errs.KindOf(runErr).String())
		if e, ok := errs.As(runErr); ok && e.Op() != "" {
			ev = ev.Str("op", e.Op())
		}
		ev.Msg("run failed")
		return ExitFatal
	}
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func printUsage(fs *flag.FlagSet, outw *bufio.Writer, stderr io.Writer, code int) int {
	fs.SetOutput(outw)
	fs.Usage()
	return flushed(outw, stderr, code)
}

func flushed(outw *bufio.Writer, stderr io.Writer, code int) int {
	if e := outw.Flush(); sink.IsBrokenPipe(e) {
		return ExitOK
	} else if e != nil {
		_, _ = fmt.Fprintln(stderr, e)
		return ExitFatal
	}
	return code
}
