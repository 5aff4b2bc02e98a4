// Package main hosts the scenecode CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the full pipeline: fetching and
// discovering institution videos, splitting them into scene clips,
// resolving and merging scene continuations, vision labeling, contact
// sheet reporting, stratified sampling, and ledger exports. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
