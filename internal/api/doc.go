// Package api serves the REST interface for paper search, download,
// summaries, quizzes, and video generation. Responses are JSON; errors map
// to HTTP status codes through the shared service error markers.
package api
