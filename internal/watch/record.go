package watch

import "time"

// PlaceholderTitle is substituted when a source record carries no title.
const PlaceholderTitle = "(no title)"

// ChangeRecord is the canonical shape of one unit of observable state in the
// remote store. Adapters map their raw wire formats onto this; the detector
// and dispatcher never see anything else.
type ChangeRecord struct {
	ID         string
	Title      string // PlaceholderTitle when absent at the source
	Detail     string // free text, may be empty
	ModifiedAt time.Time
	Pending    bool // awaiting notification; cleared by acknowledge
	Location   string
}

// Content returns the fields that define "the record changed" for
// fingerprinting. ModifiedAt is deliberately excluded: a re-save without new
// content must not produce a new fingerprint.
func (r ChangeRecord) Content() string {
	return r.Title + "\n" + r.Detail
}
