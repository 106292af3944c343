// Package paperload fetches paper PDFs and extracts their text content.
//
// The extracted document carries both the full concatenated page text and a
// best-effort split into conventional sections (abstract, introduction,
// methods, results, conclusion) used by the deterministic outline fallback.
package paperload
