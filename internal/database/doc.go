// Package database provides SQLite-backed persistence for crawl history.
//
// Every completed crawl can be saved as a run: a UUID-keyed row carrying
// the serialized report plus per-instance rows that make run-to-run
// comparisons cheap. The history command reads this store to list past
// runs, reprint a stored report, and diff two runs.
package database
