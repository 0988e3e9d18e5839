package cli

import (
	"flag"
	"fmt"
	"io"

	"blastfasta/internal/version"
)

// NewFlagSet returns a clean FlagSet with ContinueOnError. Usage prints the
// grouped help block below.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { usage(fs.Output(), fs, name) }
	return fs
}

func usage(out io.Writer, fs *flag.FlagSet, name string) {
	def := func(flagName string) string {
		if f := fs.Lookup(flagName); f != nil {
			return f.DefValue
		}
		return ""
	}

	fmt.Fprintf(out, "%s: BLAST every record of a FASTA file against UniProt\n\n", name)
	fmt.Fprintf(out, "Version: %s\n\n", version.Version)
	fmt.Fprintf(out, "Usage:\n  %s [flags] <input.fasta|->\n", name)

	fmt.Fprintln(out, "\nSearch:")
	fmt.Fprintf(out, "      --db string             Target database: uniref100 | uniref90 | uniref50 | uniprotkb | swissprot | trembl [%s]\n", def("db"))
	fmt.Fprintln(out, "      --endpoint url          Search service base URL [EBI ncbiblast REST]")
	fmt.Fprintln(out, "      --email string          Contact address sent with each job")
	fmt.Fprintf(out, "      --poll-interval dur     Delay between job status checks [%s]\n", def("poll-interval"))
	fmt.Fprintf(out, "      --max-polls int         Status checks per job before giving up (0=unlimited) [%s]\n", def("max-polls"))

	fmt.Fprintln(out, "\nConcurrency:")
	fmt.Fprintf(out, "      --queue-capacity int    Records buffered ahead of the workers [%s]\n", def("queue-capacity"))
	fmt.Fprintf(out, "      --min-workers int       Worker floor (raised to available CPUs) [%s]\n", def("min-workers"))
	fmt.Fprintf(out, "      --max-workers int       Worker ceiling [%s]\n", def("max-workers"))
	fmt.Fprintf(out, "      --idle-timeout dur      Extra workers exit after this long without work [%s]\n", def("idle-timeout"))
	fmt.Fprintf(out, "      --drain-timeout dur     Wait for in-flight searches after input ends [%s]\n", def("drain-timeout"))

	fmt.Fprintln(out, "\nOutput:")
	fmt.Fprintf(out, "  -o, --out file              TSV destination, '-' for STDOUT, .gz to compress [%s]\n", def("out"))

	fmt.Fprintln(out, "\nMisc:")
	fmt.Fprintln(out, "      --config file           YAML settings (flags and BLASTFASTA_* env override it)")
	fmt.Fprintf(out, "      --log-level string      trace | debug | info | warn | error | off [%s]\n", def("log-level"))
	fmt.Fprintf(out, "      --log-format string     console | json [%s]\n", def("log-format"))
	fmt.Fprintln(out, "  -q, --quiet                 Suppress the run summary")
	fmt.Fprintln(out, "  -v, --version               Print version and exit")
	fmt.Fprintln(out, "  -h, --help                  Show this help")
}
