// Package printer formats command output for the terminal.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/agenthands/weft/internal/core/model"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Printer writes messages to Out and errors to Err. Colors follow
// color.NoColor, which honors NO_COLOR and non-terminal output.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, err io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if err == nil {
		err = os.Stderr
	}
	return &Printer{Out: out, Err: err}
}

// Success prints a green line with a check mark.
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.Out, "✓ %s\n", fmt.Sprintf(format, a...))
}

func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.Out, format+"\n", a...)
}

func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.Out, "! %s\n", fmt.Sprintf(format, a...))
}

// Step announces one stage of a multi-stage command.
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.Out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Error prints a titled error with details and suggestions to Err and
// returns an error carrying only the title, for cobra.
func (p *Printer) Error(title, explanation string, details map[string]string, suggestions []string) error {
	red.Fprintf(p.Err, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(p.Err, "\n%s\n", explanation)
	}
	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(p.Err)
		for _, k := range keys {
			fmt.Fprintf(p.Err, "  %s: %s\n", k, details[k])
		}
	}
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(p.Err, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(p.Err, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(p.Err, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}

// Report prints one line per document followed by totals.
func (p *Printer) Report(r model.Report) {
	width := 0
	for _, o := range r.Outcomes {
		width = max(width, len(o.DocumentID))
	}
	var total model.Summary
	for _, o := range r.Outcomes {
		name := o.DocumentID + strings.Repeat(" ", width-len(o.DocumentID))
		if !o.OK {
			red.Fprintf(p.Out, "✗ %s  %s: %s\n", name, o.Kind, o.Message)
			continue
		}
		green.Fprintf(p.Out, "✓ %s", name)
		faint.Fprintf(p.Out, "  accepted %d, duplicate %d, ungrounded %d, skipped %d\n",
			o.Accepted, o.Duplicates, o.Ungrounded, o.Skipped)
		total.Accepted += o.Accepted
		total.Duplicates += o.Duplicates
		total.Ungrounded += o.Ungrounded
		total.Skipped += o.Skipped
	}

	failed := len(r.Failed())
	fmt.Fprintf(p.Out, "\n%d documents, %d succeeded, %d failed; %d annotations accepted\n",
		len(r.Outcomes), len(r.Outcomes)-failed, failed, total.Accepted)
}
