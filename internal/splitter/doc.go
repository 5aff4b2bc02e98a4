// Package splitter cuts an institution's source video into per-shot scene
// clips. Splitting always starts from a fresh scenes directory: the stage
// recreates it, cuts segments at detected boundaries, discards corrupt or
// blank clips, and captures a midpoint screenshot for every survivor.
package splitter
