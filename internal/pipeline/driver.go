package pipeline

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"blastfasta/internal/errs"
	"blastfasta/internal/fasta"
	"blastfasta/internal/pool"
	"blastfasta/internal/queue"
	"blastfasta/internal/search"
	"blastfasta/internal/sink"
)

// Defaults for Config fields left at zero.
const (
	DefaultQueueCapacity = 10000
	DefaultDrainTimeout  = 15 * time.Minute
	DefaultStopTimeout   = 30 * time.Second
)

// State is the driver's lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateServiceStarted
	StateStreaming
	StateDraining
	StateServiceStopped
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateServiceStarted:
		return "service_started"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateServiceStopped:
		return "service_stopped"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Config controls one run.
type Config struct {
	Input    string // FASTA path, "-" for stdin
	Output   string // TSV path, "-" for stdout
	Database search.Database

	QueueCapacity int
	Pool          pool.Config

	// DrainTimeout bounds the wait for in-flight work after the input ends.
	DrainTimeout time.Duration

	// StopTimeout bounds service shutdown.
	StopTimeout time.Duration
}

// Summary reports what a run did.
type Summary struct {
	RunID         string
	Read          int
	Submitted     int64
	Completed     int64
	Failed        int64
	NoHit         int64
	Rows          int64
	DrainTimedOut bool
	Elapsed       time.Duration
}

// Option customizes a Driver.
type Option func(*Driver)

// WithLogger sets the driver's logger; the default discards.
func WithLogger(l zerolog.Logger) Option { return func(d *Driver) { d.log = l } }

// WithSourceOpener replaces the FASTA opener.
func WithSourceOpener(fn func(path string) (Source, error)) Option {
	return func(d *Driver) { d.openSource = fn }
}

// WithSinkOpener replaces the TSV opener.
func WithSinkOpener(fn func(path string) (Sink, error)) Option {
	return func(d *Driver) { d.openSink = fn }
}

// Driver owns every component of a run and tears them down in order:
// pool, service, sink, reader.
type Driver struct {
	cfg        Config
	svc        search.Service
	log        zerolog.Logger
	openSource func(path string) (Source, error)
	openSink   func(path string) (Sink, error)

	state atomic.Int32
}

// New builds a Driver around svc.
func New(cfg Config, svc search.Service, opts ...Option) *Driver {
	if cfg.Database == "" {
		cfg.Database = search.DefaultDatabase
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	d := &Driver{cfg: cfg, svc: svc, log: zerolog.Nop()}
	for _, o := range opts {
		o(d)
	}
	if d.openSource == nil {
		d.openSource = func(path string) (Source, error) {
			return fasta.Open(path, fasta.WithLogger(d.log))
		}
	}
	if d.openSink == nil {
		d.openSink = func(path string) (Sink, error) { return sink.Create(path) }
	}
	return d
}

// State returns the current lifecycle state.
func (d *Driver) State() State { return State(d.state.Load()) }

func (d *Driver) setState(s State, log zerolog.Logger) {
	d.state.Store(int32(s))
	log.Debug().Str("state", s.String()).Msg("driver state")
}

// Run executes the whole pipeline once. A non-nil error means the run was
// fatal or interrupted; per-record failures only show up in the Summary.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}
	log := d.log.With().Str("run_id", sum.RunID).Logger()

	if err := d.svc.Start(ctx); err != nil {
		d.setState(StateClosed, log)
		return d.finish(sum, start), errs.WithOp(err, "start service")
	}
	d.setState(StateServiceStarted, log)

	src, err := d.openSource(d.cfg.Input)
	if err != nil {
		d.stopService(ctx, log)
		d.setState(StateClosed, log)
		return d.finish(sum, start), errs.WithOp(err, "open input")
	}
	out, err := d.openSink(d.cfg.Output)
	if err != nil {
		d.stopService(ctx, log)
		d.release(log, "input", src)
		d.setState(StateClosed, log)
		return d.finish(sum, start), errs.WithOp(err, "open output")
	}

	var noHit atomic.Int64
	q := queue.New[pool.Task[WorkItem]](d.cfg.QueueCapacity)
	p := pool.New(d.cfg.Pool, q, d.handler(log, &noHit), log)
	p.Start(ctx)

	d.setState(StateStreaming, log)
	runErr := d.stream(ctx, src, out, p, log)
	sum.Read = src.Count()

	d.setState(StateDraining, log)
	p.Shutdown()
	if !p.AwaitDrain(d.cfg.DrainTimeout) {
		sum.DrainTimedOut = true
		log.Warn().Str("kind", errs.KindDrainTimeout.String()).Dur("timeout", d.cfg.DrainTimeout).
			Int("live_workers", p.Stats().Live).Msg("workers still busy after drain timeout; closing anyway")
	}

	d.stopService(ctx, log)
	d.setState(StateServiceStopped, log)
	d.release(log, "output", out)
	d.release(log, "input", src)
	d.setState(StateClosed, log)

	st := p.Stats()
	sum.Submitted, sum.Completed, sum.Failed = st.Submitted, st.Completed, st.Failed
	sum.NoHit = noHit.Load()
	sum.Rows = out.Rows()
	return d.finish(sum, start), runErr
}

func (d *Driver) finish(sum Summary, start time.Time) Summary {
	sum.Elapsed = time.Since(start)
	return sum
}

// stream submits one WorkItem per record until EOF, a read error or ctx ends.
func (d *Driver) stream(ctx context.Context, src Source, out Sink, p *pool.Pool[WorkItem], log zerolog.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("read", src.Count()).Msg("interrupted; no further records will be submitted")
			return err
		}
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			log.Info().Int("read", src.Count()).Msg("input exhausted")
			return nil
		}
		if err != nil {
			return errs.WithOp(err, "read input")
		}
		if _, err := p.Submit(ctx, WorkItem{Sequence: s, Database: d.cfg.Database, sink: out}); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
	}
}

// handler searches one record and writes its best hit. A record with no hit
// is counted and produces no row.
func (d *Driver) handler(log zerolog.Logger, noHit *atomic.Int64) pool.Handler[WorkItem] {
	return func(ctx context.Context, t pool.Task[WorkItem]) error {
		it := t.Item
		log.Debug().Uint64("seq", t.Seq).Str("name", it.Sequence.Name).
			Str("md5", it.Sequence.DigestHex()).Int("length", it.Sequence.Len()).Msg("searching")

		res, err := d.svc.Search(ctx, search.Request{Database: it.Database, Sequence: it.Sequence.Residues}).Wait(ctx)
		if err != nil {
			return errs.Wrapf(err, errs.KindRemoteCallFailed, "search %q", it.Sequence.Name)
		}
		hit, ok := res.Best()
		if !ok {
			noHit.Add(1)
			log.Debug().Uint64("seq", t.Seq).Str("name", it.Sequence.Name).Msg("no hit")
			return nil
		}
		return it.sink.WriteRow(it.Sequence.Name, hit.ID, hit.Summary)
	}
}

func (d *Driver) stopService(ctx context.Context, log zerolog.Logger) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.StopTimeout)
	defer cancel()
	if err := d.svc.Stop(sctx); err != nil {
		log.Error().Err(err).Str("kind", errs.KindResourceCloseFailed.String()).Msg("stop search service")
	}
}

func (d *Driver) release(log zerolog.Logger, what string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Error().Err(err).Str("kind", errs.KindResourceCloseFailed.String()).Str("resource", what).Msg("close failed")
	}
}
