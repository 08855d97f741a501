// Package ledger stores the deduplicated output lines of a scrape run
// in a flat UTF-8 text file, one line per record.
//
// The ledger is loaded once at run start and rewritten in full after
// every processed page. Dedup membership is derived from the line
// content itself (the column before the first tab), so a reloaded
// ledger reproduces the identical seen-key set.
package ledger
