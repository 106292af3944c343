// Package speech synthesizes narration audio through an HTTP text-to-speech
// engine.
//
// One full track plus one file per segment is produced per run. The engine
// is never called with empty text; blank segments are replaced with a fixed
// filler sentence first. Durations are measured from the produced files via
// ffprobe and soft-fail to zero.
package speech
