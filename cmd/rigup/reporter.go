// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rigup/rigup/internal/engine"
	"github.com/rigup/rigup/pkg/playbook"
)

// styledReporter prints one line per finished step, plus the failing items
// of bulk steps.
type styledReporter struct {
	w       io.Writer
	verbose bool
}

func newStyledReporter(w io.Writer, verbose bool) *styledReporter {
	return &styledReporter{w: w, verbose: verbose}
}

// StepStarted implements engine.Reporter.
func (r *styledReporter) StepStarted(step *playbook.Step) {
	if r.verbose {
		fmt.Fprintf(r.w, "%s %s %s\n", VerboseStyle.Render("→"), step.Name, VerboseStyle.Render("("+string(step.Kind())+")"))
	}
}

// StepFinished implements engine.Reporter.
func (r *styledReporter) StepFinished(res engine.StepResult) {
	symbol, style := outcomeStyle(res.Outcome)
	line := fmt.Sprintf("%s %-24s %s", style.Render(symbol), res.Name, style.Render(string(res.Outcome)))
	if res.Detail != "" {
		line += " " + SubtitleStyle.Render(res.Detail)
	}
	if r.verbose && res.Duration > 0 {
		line += " " + VerboseStyle.Render(res.Duration.Round(time.Millisecond).String())
	}
	fmt.Fprintln(r.w, line)

	if res.Err != nil && len(res.Items) == 0 {
		fmt.Fprintf(r.w, "    %s\n", ErrorStyle.Render(res.Err.Error()))
	}
	for _, it := range res.Items {
		switch {
		case it.Err != nil:
			fmt.Fprintf(r.w, "    %s %s: %s\n", ErrorStyle.Render("✗"), it.Item, it.Err)
		case r.verbose:
			symbol, style := outcomeStyle(it.Outcome)
			fmt.Fprintf(r.w, "    %s %s %s\n", style.Render(symbol), it.Item, SubtitleStyle.Render(it.Detail))
		}
	}
}

// printSummary prints the outcome counts, the failed items and the log path.
func printSummary(w io.Writer, rep *engine.Report, logPath string) {
	counts := rep.Counts()
	var parts []string
	for _, o := range engine.Outcomes() {
		if n := counts[o]; n > 0 {
			_, style := outcomeStyle(o)
			parts = append(parts, style.Render(fmt.Sprintf("%d %s", n, o)))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, SubtitleStyle.Render("no steps run"))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s %s\n", TitleStyle.Render("Summary:"), strings.Join(parts, ", "),
		SubtitleStyle.Render("("+rep.Finished.Sub(rep.Started).Round(time.Millisecond).String()+")"))

	for _, s := range rep.Failures() {
		if failed := s.FailedItems(); len(failed) > 0 {
			fmt.Fprintf(w, "  %s %s: %s\n", WarningStyle.Render("failed items in"), s.Name, strings.Join(failed, ", "))
		}
	}
	if rep.Interrupted {
		fmt.Fprintln(w, WarningStyle.Render("Run interrupted; remaining steps were not run."))
	}
	if logPath != "" {
		fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("Log:"), CmdStyle.Render(logPath))
	}
}
