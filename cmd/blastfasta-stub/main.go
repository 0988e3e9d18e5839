// cmd/blastfasta-stub serves the in-memory search API for local dry runs:
//
//	blastfasta-stub --addr :8089 --delay 2s &
//	blastfasta --endpoint http://localhost:8089 proteins.fa
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"blastfasta/internal/appshell"
	"blastfasta/internal/cli"
	"blastfasta/internal/logger"
	"blastfasta/internal/search/searchstub"
)

func main() { appshell.Main(run) }

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("blastfasta-stub")
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: blastfasta-stub [--addr :8089] [--delay 0s]")
		fs.PrintDefaults()
	}
	addr := fs.String("addr", ":8089", "listen address")
	delay := fs.Duration("delay", 0, "how long each job stays RUNNING")
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	lo := logger.FromEnv()
	lo.Writer, lo.Component = stderr, "blastfasta-stub"
	log := logger.New(lo)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Error().Err(err).Str("addr", *addr).Msg("listen")
		return 3
	}
	srv := &http.Server{
		Handler:           searchstub.New(searchstub.Options{Delay: *delay}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info().Str("addr", ln.Addr().String()).Dur("delay", *delay).Msg("stub search service listening")

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("serve")
		return 3
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
		return 3
	}
	log.Info().Msg("stopped")
	return 0
}
