package analyzer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// ProgressTracker provides colored phase output, scan progress bars and a
// closing summary. Only the summary is printed when verbose is off.
// It is safe for use by concurrent schema scans.
type ProgressTracker struct {
	mu        sync.Mutex
	verbose   bool
	out       io.Writer
	startTime time.Time
	bar       *progressbar.ProgressBar

	// Terminal color formatters
	cyan    *color.Color
	green   *color.Color
	yellow  *color.Color
	blue    *color.Color
	magenta *color.Color
}

// NewProgressTracker creates a tracker writing to standard error.
func NewProgressTracker(verbose bool) *ProgressTracker {
	return &ProgressTracker{
		verbose:   verbose,
		out:       os.Stderr,
		startTime: time.Now(),
		cyan:      color.New(color.FgCyan, color.Bold),
		green:     color.New(color.FgGreen, color.Bold),
		yellow:    color.New(color.FgYellow, color.Bold),
		blue:      color.New(color.FgBlue),
		magenta:   color.New(color.FgMagenta),
	}
}

func (pt *ProgressTracker) StartPhase(phase string) {
	if !pt.verbose {
		return
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.cyan.Fprintf(pt.out, "\n🚀 %s\n", phase)
	fmt.Fprintln(pt.out, color.New(color.FgHiBlack).Sprint("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
}

func (pt *ProgressTracker) Info(format string, args ...interface{}) {
	pt.print(pt.blue, "   ℹ  "+format, args...)
}

func (pt *ProgressTracker) Success(format string, args ...interface{}) {
	pt.print(pt.green, "   ✓  "+format, args...)
}

func (pt *ProgressTracker) Warning(format string, args ...interface{}) {
	pt.print(pt.yellow, "   ⚠  "+format, args...)
}

func (pt *ProgressTracker) print(c *color.Color, format string, args ...interface{}) {
	if !pt.verbose {
		return
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()
	c.Fprintf(pt.out, format+"\n", args...)
}

// Progress advances the scan progress bar, starting a new one whenever the
// total changes.
func (pt *ProgressTracker) Progress(current, total int, description string) {
	if !pt.verbose {
		return
	}
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.bar == nil || total != pt.bar.GetMax() {
		pt.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionSetWriter(pt.out),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("tables"),
		)
	}
	pt.bar.Describe(description)
	pt.bar.Set(current)
}

func (pt *ProgressTracker) FinishProgress() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.bar != nil {
		pt.bar.Finish()
		fmt.Fprintln(pt.out)
		pt.bar = nil
	}
}

// Analyzed reports the diagnostics of one finished analysis.
func (pt *ProgressTracker) Analyzed(a *Analysis) {
	if a.Inference != nil {
		if a.Inference.BailedOut {
			pt.Warning("Implied constraints skipped (%d duplicated primary key signatures)", a.Inference.DuplicatePrimaries)
		} else {
			pt.Info("Inferred %d implied constraints", len(a.Inference.Constraints))
		}
	}
	for _, u := range a.Unresolved {
		pt.Warning("Unresolved foreign key %s", u)
	}
	for _, c := range a.Ordering.Removed {
		if pt.verbose {
			pt.mu.Lock()
			pt.magenta.Fprintf(pt.out, "   ✂  Removed %s\n", c)
			pt.mu.Unlock()
		}
	}
	pt.Success("Ordered %d tables in %s", len(a.Ordering.Tables()), a.Schema)
}

// Complete prints the closing summary for a run over the given analyses.
func (pt *ProgressTracker) Complete(analyses []*Analysis) {
	elapsed := time.Since(pt.startTime)

	tables, removed := 0, 0
	for _, a := range analyses {
		tables += len(a.Ordering.Tables())
		removed += len(a.Ordering.Removed)
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.verbose {
		fmt.Fprintln(pt.out)
		pt.cyan.Fprintln(pt.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		pt.green.Fprintf(pt.out, "✓ Analysis Complete!\n\n")

		fmt.Fprintf(pt.out, "  📊 Statistics:\n")
		pt.blue.Fprintf(pt.out, "     • Schemas:      %d\n", len(analyses))
		pt.blue.Fprintf(pt.out, "     • Tables:       %d\n", tables)
		pt.blue.Fprintf(pt.out, "     • Removed FKs:  %d\n", removed)
		pt.blue.Fprintf(pt.out, "     • Time taken:   %v\n", elapsed.Round(time.Millisecond))
		fmt.Fprintln(pt.out)
		return
	}

	// Even in non-verbose mode, show a simple summary
	pt.green.Fprintf(pt.out, "✓ Ordered %d tables from %d schemas in %v\n",
		tables, len(analyses), elapsed.Round(time.Millisecond))
}
