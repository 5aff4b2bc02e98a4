// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp institution domains, stage names, and run
//     identifiers for logging and the ledger.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the toolkit's recovery granularities (skip row, skip institution,
//     abort run).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
