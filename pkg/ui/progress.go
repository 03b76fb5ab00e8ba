package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Progress tracks a batch of downloads. Safe for concurrent use.
type Progress struct {
	mu        sync.Mutex
	p         *Printer
	label     string
	total     int
	done      int
	failed    int
	bytes     int64
	startTime time.Time
	verbose   bool
	now       func() time.Time
}

// NewProgress starts tracking. total may be zero when the batch size is not
// known up front.
func NewProgress(p *Printer, label string, total int, verbose bool) *Progress {
	return &Progress{
		p:         p,
		label:     label,
		total:     total,
		startTime: time.Now(),
		verbose:   verbose,
		now:       time.Now,
	}
}

// Complete records a saved file.
func (pr *Progress) Complete(name string, size int64) {
	pr.mu.Lock()
	pr.done++
	pr.bytes += size
	line := pr.line()
	pr.mu.Unlock()

	if pr.verbose {
		pr.p.Row("%s %s • %s", pr.p.green.Render("✓"), name, FormatBytes(size))
		return
	}
	pr.p.print(pr.p.out, false, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

// Fail records a failed file.
func (pr *Progress) Fail(name string, err error) {
	pr.mu.Lock()
	pr.failed++
	pr.mu.Unlock()
	pr.p.Error("✗ "+name, err)
}

// Counts returns the number of saved and failed files.
func (pr *Progress) Counts() (done, failed int) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.done, pr.failed
}

func (pr *Progress) line() string {
	elapsed := pr.now().Sub(pr.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(pr.done) / elapsed.Minutes()
	}
	count := fmt.Sprintf("%d", pr.done)
	if pr.total > 0 {
		const width = 20
		filled := min(pr.done*width/pr.total, width)
		bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
		count = fmt.Sprintf("[%s] %d/%d", bar, pr.done, pr.total)
	}
	line := fmt.Sprintf("%s %s • %.1f/min • %s", pr.p.cyan.Render(pr.label), count, rate, FormatBytes(pr.bytes))
	if pr.failed > 0 {
		line += " • " + pr.p.red.Render(fmt.Sprintf("%d errors", pr.failed))
	}
	return line
}

// Summary prints the final tally.
func (pr *Progress) Summary() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	elapsed := pr.now().Sub(pr.startTime)
	pr.p.print(pr.p.out, false, "\n%s Downloaded %d files for %s\n", pr.p.green.Render("✓"), pr.done, pr.label)
	pr.p.print(pr.p.out, false, "  %s %s in %s\n", pr.p.dim.Render("•"), FormatBytes(pr.bytes), FormatDuration(elapsed))
	if pr.failed > 0 {
		pr.p.print(pr.p.out, false, "  %s %d downloads failed\n", pr.p.dim.Render("•"), pr.failed)
	}
}

// FormatDuration renders d at second precision.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// FormatBytes renders a size with a binary unit.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
