// Package media wraps the external ffmpeg/ffprobe tools behind the
// Toolchain capability interface.
//
// Pipeline stages never shell out directly; they hold a Toolchain, which
// keeps every subprocess invocation in one place and lets tests script tool
// behaviour through a fake. The FFmpeg implementation mirrors the exact
// invocations the study pipeline depends on: the decimated scene-score
// filter chain for boundary detection, re-encoded interior segments with a
// stream-copied tail, midpoint frame grabs, the concat demuxer, and
// blackdetect-based blank scoring.
package media
