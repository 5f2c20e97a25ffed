// Package sync turns raw Cloudflare Pages records into the normalized models the monitor
// persists, and detects which of them changed between poll cycles.
//
// # Normalization
//
// NormalizeProject and NormalizeDeployment map the upstream shapes onto models.Project and
// models.Deployment. A deployment's status is derived from its latest pipeline stage:
//
//   - idle: queued
//   - active: deploying when the stage is "deploy", building otherwise
//   - success, failure, canceled, skipped: unchanged
//   - anything else: unknown
//
// A project carries the status of its latest deployment.
//
// # Change detection
//
// ChangeDetector remembers a fingerprint of every record it has seen in a bounded LRU and
// reports records that are new or whose fingerprint moved. The coordinator package uses it
// to publish per-record events after each cycle.
package sync
