// Package sheet reads the study's spreadsheets and maps their loosely
// named columns onto a declared schema.
//
// Coder sheets arrive as CSV or XLSX with headers that vary between
// coders ("Clip Number", "#", "clip"). Each logical column carries an
// alias list, optionally overridden per field in config, and detection
// fails eagerly with every missing field named. Parsed rows reduce the
// domain cell to a bare hostname and coerce clip numbers to integers;
// rows that cannot yield both are dropped and reported rather than
// aborting the run.
package sheet
