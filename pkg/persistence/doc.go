// Package persistence writes wizard progress to a ports.CheckpointStore.
//
// Writes are debounced on the trailing edge: every Schedule call for a key
// replaces the pending snapshot and restarts the quiet-period timer, so a
// burst of edits produces a single write carrying the latest draft.
// Write failures never reach navigation; they are logged, reported through
// hooks and exposed as an "unsaved" SaveStatus until the next successful write.
//
// Sub-package middleware wraps stores with PII masking and encryption.
package persistence
