// Package narration composes the spoken script for a slide outline.
//
// Each slide gets one segment with an estimated spoken duration. LLM
// failure degrades to templated narration rather than erroring. All output
// passes through the speech-friendliness pass: abbreviation expansion,
// pause markers at sentence boundaries, and a closing line on the full
// script.
package narration
