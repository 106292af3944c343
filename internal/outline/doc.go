// Package outline structures extracted paper text into presentation slides.
//
// The structurer asks the LLM for a fixed-size slide outline and validates
// the shape of the response. It never fails outward: when the service errors
// or returns an unusable payload it degrades to a deterministic outline
// assembled from the paper's located sections, flagged via UsedFallback.
package outline
