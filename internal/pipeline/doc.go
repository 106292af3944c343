// Package pipeline orchestrates video generation for a paper.
//
// Stages run strictly in order: load, outline, narrate, synthesize,
// assemble, then upload and persist. A completed artifact short-circuits
// the run unless regeneration is forced, persistence is an upsert keyed by
// paper id, and the per-run scratch directory is removed at run end whether
// the run succeeded or failed. A per-paper file lock serializes concurrent
// runs for the same paper.
package pipeline
