// Package textutil provides small text helpers shared across the pipeline,
// chiefly SafeFolder, which turns institution domains and other free-form
// values into filesystem-safe directory names.
package textutil
