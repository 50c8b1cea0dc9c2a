// Package id generates session identifiers.
package id

import (
	"time"

	fid "github.com/amterp/flexid"
)

var sessionGenerator *fid.Generator

func init() {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Session ids end up in cookies, so carry more randomness than a
	// time-ordered record id would need.
	config := fid.NewConfig().
		WithEpoch(epoch).
		WithTickSize(time.Millisecond).
		WithNumRandomChars(10)

	sessionGenerator = fid.MustNewGenerator(config)
}

// NewSessionID returns a new unique session id.
func NewSessionID() string {
	return sessionGenerator.MustGenerate()
}

// Valid reports whether s looks like an id this package produced.
// It only checks shape; callers still look the session up.
func Valid(s string) bool {
	if len(s) < 10 || len(s) > 64 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
