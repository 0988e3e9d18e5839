package app

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"blastfasta/internal/pipeline"
)

// writeSummary prints the end-of-run tally. Color follows fatih/color's
// terminal detection, so pipes and NO_COLOR get plain text.
func writeSummary(w io.Writer, s pipeline.Summary, output string) {
	label := color.New(color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	warn := color.New(color.FgYellow)

	failed := good
	if s.Failed > 0 {
		failed = bad
	}

	_, _ = label.Fprintf(w, "run %s", s.RunID)
	_, _ = fmt.Fprintf(w, " finished in %s\n", s.Elapsed.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  read %d  submitted %d  ", s.Read, s.Submitted)
	_, _ = good.Fprintf(w, "completed %d", s.Completed)
	_, _ = fmt.Fprint(w, "  ")
	_, _ = failed.Fprintf(w, "failed %d", s.Failed)
	_, _ = fmt.Fprintf(w, "  no-hit %d\n", s.NoHit)
	_, _ = fmt.Fprintf(w, "  %d rows -> %s\n", s.Rows, output)
	if s.DrainTimedOut {
		_, _ = warn.Fprintln(w, "  drain timed out; some searches were abandoned")
	}
}
