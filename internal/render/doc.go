// Package render draws slide images and assembles the final video.
//
// Slides are drawn with gg: title, word-wrapped bullets clipped at a
// vertical budget, and an optional bar chart composited into the lower
// right corner when the outline carried numeric figures. Assembly shells
// out to ffmpeg: one libx264 clip per slide, concat, then an aac narration
// mux. A presenter overlay pass is optional and never blocks output.
package render
