// Package labeling sends scene stills to an OpenAI-compatible vision
// endpoint and returns the model's replies verbatim. Responses are free
// text by design; nothing here validates them against a schema.
package labeling
