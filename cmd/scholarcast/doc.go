// Package main hosts the scholarcast CLI entrypoint and command graph.
//
// The Cobra-based command tree covers paper discovery, PDF download, video
// generation, summaries and quizzes, and the HTTP API server. It centralizes
// configuration resolution and service wiring so subcommands can focus on
// user experience instead of plumbing.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
