// Package scenes owns the continuation resolver: the mapping from coder
// clip numbers to the scene files a clip actually spans on disk.
//
// A coder row names only the first scene of each clip. The scenes the
// splitter wrote between one base and the next belong to the earlier clip,
// so the resolver intersects that window with the directory listing,
// renders it in compact range notation, and picks a representative
// screenshot for labeling. Everything here works on explicit inputs; the
// inventory is re-read from disk for every operation and never cached.
package scenes
