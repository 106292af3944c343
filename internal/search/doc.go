// Package search discovers academic papers and downloads their PDFs.
//
// Two backends are queried in sequence, arXiv's Atom export API and the
// Semantic Scholar graph API. Results are merged by paper id with arXiv
// entries taking precedence, scored by result position, and persisted so
// downstream generation can look papers up by id. One backend failing only
// degrades the result set; the search fails when both do.
package search
