// Package storage uploads finished videos to an S3-compatible bucket.
//
// Uploads are optional. When the storage section is disabled the pipeline
// serves artifacts from the local output directory instead, and NewClient
// returns a nil client to signal that.
package storage
