// Package ghlog binds two of the watcher's external stores to the GitHub
// REST API: the checkpoint log (comments on a designated issue, the only
// durable slot a token-scoped Actions job can cheaply write) and the
// execution history (Actions workflow runs, read and pruned by the retention
// sweeper).
package ghlog
