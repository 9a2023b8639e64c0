// Package journal provides a small local record of past watch runs.
//
// It is strictly advisory: append failures are logged by the caller and
// never affect a run's outcome. Backends: a jsonl file, or SQLite behind the
// "sqlite" build tag.
package journal
