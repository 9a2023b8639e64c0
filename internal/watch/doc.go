// Package watch holds the core change-detection engine: the canonical
// ChangeRecord shape, the content fingerprint, the pure detection rules, and
// the Runner that sequences one watch invocation against the injected
// adapters (source, dispatcher, acknowledger, checkpoint store, sweeper).
//
// Nothing in this package talks to the network directly; every decision the
// detector makes is testable offline.
package watch
