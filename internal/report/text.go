package report

import (
	"bytes"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fedicensus/fedicensus/internal/model"
)

// TextWriter outputs human-readable plain text reports.
// This is the default format for terminal output.
//
// Design decision: numbers are formatted through x/text/message so large
// counts get locale-aware grouping ("1,234,567" instead of "1234567"),
// which matters for network-wide user totals.
type TextWriter struct {
	baseWriter

	printer *message.Printer
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
}

// Write outputs the report as plain text.
func (w *TextWriter) Write(report *model.Report) (int, error) {
	var buf bytes.Buffer

	w.writeSummary(&buf, report)
	w.writeInstances(&buf, report)
	w.writeFailures(&buf, report)

	return w.output.Write(buf.Bytes())
}

// writeSummary writes the network-wide totals block.
func (w *TextWriter) writeSummary(buf *bytes.Buffer, report *model.Report) {
	p := w.printer

	p.Fprintf(buf, "Federation crawl report\n")
	p.Fprintf(buf, "=======================\n\n")

	if report.Interrupted {
		p.Fprintf(buf, "NOTE: crawl was interrupted; results are partial.\n\n")
	}

	p.Fprintf(buf, "Crawled instances:  %d (%d failed)\n",
		report.CrawledInstances, len(report.FailedInstances))
	p.Fprintf(buf, "Duration:           %s\n\n", report.Duration().Round(10*time.Millisecond))

	p.Fprintf(buf, "Total users:        %d\n", report.TotalUsers)
	p.Fprintf(buf, "Active (day):       %d\n", report.UsersActiveDay)
	p.Fprintf(buf, "Active (week):      %d\n", report.UsersActiveWeek)
	p.Fprintf(buf, "Active (month):     %d\n", report.UsersActiveMonth)
	p.Fprintf(buf, "Active (half year): %d\n", report.UsersActiveHalfYear)
	p.Fprintf(buf, "Posts:              %d\n", report.Posts)
	p.Fprintf(buf, "Comments:           %d\n\n", report.Comments)
}

// writeInstances writes the per-instance table, largest first.
func (w *TextWriter) writeInstances(buf *bytes.Buffer, report *model.Report) {
	if len(report.InstanceDetails) == 0 {
		return
	}
	p := w.printer

	p.Fprintf(buf, "Instances\n---------\n")
	for _, inst := range report.InstanceDetails {
		p.Fprintf(buf, "  %s (%s %s): %d users, %d active/month, %d posts, %d comments\n",
			inst.Domain, inst.Software, inst.Version,
			inst.TotalUsers, inst.UsersActiveMonth, inst.Posts, inst.Comments)
	}
	p.Fprintf(buf, "\n")
}

// writeFailures writes the failure list, one line per domain.
func (w *TextWriter) writeFailures(buf *bytes.Buffer, report *model.Report) {
	if len(report.FailedInstances) == 0 {
		return
	}
	p := w.printer

	p.Fprintf(buf, "Failed instances\n----------------\n")
	for _, fail := range report.FailedInstances {
		if fail.Detail != "" {
			p.Fprintf(buf, "  %s: %s (%s)\n", fail.Domain, fail.Kind, fail.Detail)
			continue
		}
		p.Fprintf(buf, "  %s: %s\n", fail.Domain, fail.Kind)
	}
	p.Fprintf(buf, "\n")
}
