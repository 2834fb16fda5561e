package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/fedicensus/fedicensus/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeTotals(md, report)
	w.writeInstances(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and crawl metadata.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Federation Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Crawl Date", report.StartTime.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().String()},
			{"Instances Crawled", strconv.Itoa(report.CrawledInstances)},
			{"Instances Failed", strconv.Itoa(len(report.FailedInstances))},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.Report) string {
	if report.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

// writeTotals writes the network-wide totals section.
func (w *MarkdownWriter) writeTotals(md *markdown.Markdown, report *model.Report) {
	md.H2("Network Totals")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Total Users", strconv.FormatInt(report.TotalUsers, 10)},
			{"Active (day)", strconv.FormatInt(report.UsersActiveDay, 10)},
			{"Active (week)", strconv.FormatInt(report.UsersActiveWeek, 10)},
			{"Active (month)", strconv.FormatInt(report.UsersActiveMonth, 10)},
			{"Active (half year)", strconv.FormatInt(report.UsersActiveHalfYear, 10)},
			{"Posts", strconv.FormatInt(report.Posts, 10)},
			{"Comments", strconv.FormatInt(report.Comments, 10)},
		},
	})
	md.PlainText("")
}

// writeInstances writes the per-instance table, largest first.
func (w *MarkdownWriter) writeInstances(md *markdown.Markdown, report *model.Report) {
	md.H2("Instances")
	md.PlainText("")

	if len(report.InstanceDetails) == 0 {
		md.PlainText("No instances were crawled successfully.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.InstanceDetails))
	for i, inst := range report.InstanceDetails {
		rows[i] = []string{
			"`" + inst.Domain.String() + "`",
			inst.Name,
			inst.Software + " " + inst.Version,
			strconv.FormatInt(inst.TotalUsers, 10),
			strconv.FormatInt(inst.UsersActiveMonth, 10),
			strconv.FormatInt(inst.Posts, 10),
			strconv.FormatInt(inst.Comments, 10),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Name", "Software", "Users", "Active/Month", "Posts", "Comments"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the failed instance table.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.Report) {
	if len(report.FailedInstances) == 0 {
		return
	}

	md.H2("Failed Instances")
	md.PlainText("")

	rows := make([][]string, len(report.FailedInstances))
	for i, fail := range report.FailedInstances {
		detail := fail.Detail
		if detail == "" {
			detail = "-"
		}
		rows[i] = []string{
			"`" + fail.Domain.String() + "`",
			string(fail.Kind),
			truncateString(detail, 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Kind", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
