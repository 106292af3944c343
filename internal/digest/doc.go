// Package digest generates reading material for papers: a structured
// summary and a multiple-choice quiz, both persisted and regenerated on
// demand.
package digest
