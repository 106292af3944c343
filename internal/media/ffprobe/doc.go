// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The pipeline uses it to measure synthesized narration audio and assembled
// videos. ProbeDuration is deliberately forgiving: a missing binary or a
// corrupt file yields a zero duration instead of an error, because duration
// is display metadata and never gates a stage.
package ffprobe
