package tea

import "github.com/google/uuid"

// IDGenerator produces program identifiers. Implemented by UUIDv7Generator
// (production) and testutil.FixedIDGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers, which keeps
// journal rows and log lines from different runs ordered by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
