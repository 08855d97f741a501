// Package checkpoint persists the resume point of an interrupted
// scrape run.
//
// The checkpoint is a small JSON record holding the next page number
// and a timestamp, stored next to the target output file with a fixed
// .state.json suffix. Saves are atomic (temp file, fsync, rename) and
// always happen after the ledger flush for the same page, so the
// checkpoint can never reference records that were not durably
// written. The file exists only while a run is in progress and is
// removed on clean completion.
package checkpoint
