package models

import (
	"regexp"

	"github.com/google/uuid"
)

// Canonical record identifiers are 36-character hyphenated UUIDs, variant 1-5.
// Anything else supplied by a client is discarded and replaced with a fresh id,
// turning the write into an insert rather than an update.
var recordIDPattern = regexp.MustCompile(
	`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// ValidRecordID reports whether the value may be honored as an upsert key.
func ValidRecordID(id string) bool {
	return recordIDPattern.MatchString(id)
}

// NewRecordID generates a fresh canonical record identifier.
func NewRecordID() string {
	return uuid.NewString()
}

// EnsureRecordID returns the supplied id when it is canonical, otherwise a
// freshly generated one.
func EnsureRecordID(id string) string {
	if ValidRecordID(id) {
		return id
	}
	return NewRecordID()
}
