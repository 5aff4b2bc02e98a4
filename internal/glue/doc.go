// Package glue persists and applies scene continuation records.
//
// A glue file is headerless text, one record per line: the destination
// scene number, optionally followed by the compressed range of
// continuation scenes that belong to it ("7" or "7,9-11,14"). The merge
// step concatenates each record's surviving sources into the destination
// clip and deletes the spent continuations, then refreshes every
// remaining clip's midpoint screenshot. Merging is deliberately at most
// once: the pre-merge fragments are gone afterwards and a repeat run
// finds nothing to do.
package glue
