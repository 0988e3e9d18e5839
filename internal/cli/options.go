// internal/cli/options.go
package cli

import (
	"flag"
	"time"

	"blastfasta/internal/config"
)

// Options holds all CLI flags and arguments.
type Options struct {
	Input      string
	ConfigPath string

	// Search
	Database     string
	Endpoint     string
	Email        string
	PollInterval time.Duration
	MaxPolls     int

	// Concurrency
	QueueCapacity int
	MinWorkers    int
	MaxWorkers    int
	IdleTimeout   time.Duration
	DrainTimeout  time.Duration

	// Output
	Output string

	LogLevel  string
	LogFormat string
	Quiet     bool
	Version   bool

	set map[string]bool
}

// ParseArgs registers and parses all flags, returns an Options struct. Flags
// and the input path may be interleaved.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool
	d := config.Default()

	fs.StringVar(&opt.Database, "db", d.Database, "target database")
	fs.StringVar(&opt.Endpoint, "endpoint", d.Endpoint, "search service base URL")
	fs.StringVar(&opt.Email, "email", d.Email, "contact address")
	fs.DurationVar(&opt.PollInterval, "poll-interval", d.PollInterval, "job status poll interval")
	fs.IntVar(&opt.MaxPolls, "max-polls", d.MaxPolls, "status checks per job (0 = unlimited)")

	fs.IntVar(&opt.QueueCapacity, "queue-capacity", d.QueueCapacity, "records buffered ahead of workers")
	fs.IntVar(&opt.MinWorkers, "min-workers", d.MinWorkers, "worker floor")
	fs.IntVar(&opt.MaxWorkers, "max-workers", d.MaxWorkers, "worker ceiling")
	fs.DurationVar(&opt.IdleTimeout, "idle-timeout", d.IdleTimeout, "idle expiry for extra workers")
	fs.DurationVar(&opt.DrainTimeout, "drain-timeout", d.DrainTimeout, "wait for in-flight work after input ends")

	fs.StringVar(&opt.Output, "out", d.Output, "TSV output path")
	fs.StringVar(&opt.Output, "o", d.Output, "TSV output path (shorthand)")

	fs.StringVar(&opt.ConfigPath, "config", "", "YAML config file")
	fs.StringVar(&opt.LogLevel, "log-level", d.LogLevel, "log level")
	fs.StringVar(&opt.LogFormat, "log-format", d.LogFormat, "log format: console | json")
	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress the run summary")
	fs.BoolVar(&opt.Quiet, "q", false, "suppress the run summary (shorthand)")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand)")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand)")
	fs.BoolVar(&help, "help", false, "show this help message")

	flagArgs, posArgs := splitArgs(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	posArgs = append(posArgs, fs.Args()...)
	if help {
		return opt, flag.ErrHelp
	}
	opt.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opt.set[canonical(f.Name)] = true })
	if opt.Version {
		return opt, nil
	}

	in, err := resolveInput(posArgs)
	if err != nil {
		return opt, err
	}
	opt.Input = in
	return opt, nil
}

// canonical maps shorthands onto their long names.
func canonical(name string) string {
	switch name {
	case "o":
		return "out"
	case "q":
		return "quiet"
	case "v":
		return "version"
	}
	return name
}

// IsSet reports whether the named flag was given on the command line.
func (o Options) IsSet(name string) bool { return o.set[canonical(name)] }

// Apply copies every explicitly given flag onto cfg, so flags beat the config
// file and environment while unset flags leave them alone.
func (o Options) Apply(cfg *config.Config) {
	str := func(name string, dst *string, v string) {
		if o.IsSet(name) {
			*dst = v
		}
	}
	num := func(name string, dst *int, v int) {
		if o.IsSet(name) {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration, v time.Duration) {
		if o.IsSet(name) {
			*dst = v
		}
	}

	str("db", &cfg.Database, o.Database)
	str("endpoint", &cfg.Endpoint, o.Endpoint)
	str("email", &cfg.Email, o.Email)
	str("out", &cfg.Output, o.Output)
	str("log-level", &cfg.LogLevel, o.LogLevel)
	str("log-format", &cfg.LogFormat, o.LogFormat)
	num("queue-capacity", &cfg.QueueCapacity, o.QueueCapacity)
	num("min-workers", &cfg.MinWorkers, o.MinWorkers)
	num("max-workers", &cfg.MaxWorkers, o.MaxWorkers)
	num("max-polls", &cfg.MaxPolls, o.MaxPolls)
	dur("idle-timeout", &cfg.IdleTimeout, o.IdleTimeout)
	dur("drain-timeout", &cfg.DrainTimeout, o.DrainTimeout)
	dur("poll-interval", &cfg.PollInterval, o.PollInterval)
	if o.IsSet("quiet") {
		cfg.Quiet = o.Quiet
	}
}
