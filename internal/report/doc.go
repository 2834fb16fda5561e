// Package report renders crawl reports in text, Markdown, and JSON.
//
// All writers implement the same Writer interface over model.Report, so
// the command layer can pick a format (or several at once through
// MultiWriter) without caring how each is produced. Text output is the
// human-facing default; Markdown targets documentation and sharing; JSON
// targets tool integration.
package report
