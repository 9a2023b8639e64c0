package watch

import "errors"

var (
	// ErrFetch wraps network/parse failures while reading candidates.
	// It aborts the run before any notification is attempted.
	ErrFetch = errors.New("fetch candidates failed")

	// ErrCheckpointSave wraps a failed checkpoint write. Fatal to the run:
	// losing the write risks duplicate notifications next run, which the
	// operator should hear about loudly.
	ErrCheckpointSave = errors.New("checkpoint save failed")

	// ErrDeliveryExhausted is reported by a dispatcher once its retry
	// budget for a single message is spent. Fatal per-record only.
	ErrDeliveryExhausted = errors.New("delivery attempts exhausted")
)
