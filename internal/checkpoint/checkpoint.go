package checkpoint

import (
	"fmt"
	"strings"
	"time"
)

// Checkpoint is the persisted high-water mark of a watch run.
//
// LastSeenAt is the modification timestamp of the newest record notified so
// far; LastFingerprint is the content fingerprint of that same record. The
// zero value means "no checkpoint" (first run, or a log that could not be
// read), which deliberately errs toward re-notification.
type Checkpoint struct {
	LastSeenAt      time.Time
	LastFingerprint string
}

// IsZero reports whether no checkpoint has been established yet.
func (c Checkpoint) IsZero() bool {
	return c.LastSeenAt.IsZero() && c.LastFingerprint == ""
}

// Encode renders the single-line wire form "<RFC3339Nano UTC>|<hex fingerprint>".
func (c Checkpoint) Encode() string {
	return c.LastSeenAt.UTC().Format(time.RFC3339Nano) + "|" + c.LastFingerprint
}

func (c Checkpoint) String() string {
	if c.IsZero() {
		return "(none)"
	}
	return c.Encode()
}

// Decode parses the wire form produced by Encode.
//
// Bare timestamps (no fingerprint part) are accepted too: older deployments
// stored only the timestamp, and dropping their high-water mark on upgrade
// would re-notify the whole backlog.
func Decode(raw string) (Checkpoint, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Checkpoint{}, fmt.Errorf("empty checkpoint entry")
	}

	tsPart := s
	fpPart := ""
	if i := strings.IndexByte(s, '|'); i >= 0 {
		tsPart = s[:i]
		fpPart = strings.TrimSpace(s[i+1:])
	}

	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(tsPart))
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint timestamp: %w", err)
	}
	if !validFingerprint(fpPart) {
		return Checkpoint{}, fmt.Errorf("checkpoint fingerprint %q is not hex", fpPart)
	}
	return Checkpoint{LastSeenAt: ts.UTC(), LastFingerprint: fpPart}, nil
}

func validFingerprint(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
