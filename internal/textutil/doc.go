// Package textutil provides text processing utilities for fingerprinting,
// similarity, title normalization, and filename sanitization.
//
// The primary use cases are:
//   - Detecting near-duplicate paper titles across metadata providers
//   - Normalizing all-caps or all-lowercase titles for display
//   - Sanitizing filenames and path segments for safe filesystem use
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// The tokenization process lowercases text, splits on non-alphanumeric characters,
// and filters tokens shorter than 3 characters.
package textutil
