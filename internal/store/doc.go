// Package store persists the labeling ledger in SQLite.
//
// The ledger records runs and their per-clip and per-scene model outputs
// keyed by (institution, clip) and (institution, scene). It exists for two
// reasons: interrupted batches resume without re-spending model calls
// (rows with a non-ERROR output are skipped), and the consolidated
// spreadsheet exports can be regenerated at any time without re-running
// the pipeline. The scene file inventory itself is never cached here;
// every run re-lists the directory.
package store
