// Package scraper drives the page-by-page tag collection run.
//
// The controller owns the loop: fetch a page, project each record
// into an output line, append new keys to the ledger, flush the
// ledger, save the checkpoint for the following page, sleep, advance.
// Pages are requested strictly in increasing order, one at a time.
//
// Rate-limited pages are retried in place after a backoff pause, with
// no bound on attempts. Transport errors are not retried; they
// propagate with the checkpoint left on disk so the next run resumes
// where this one stopped. Interrupts (context cancellation) trigger a
// final ledger flush and normal cleanup.
package scraper
