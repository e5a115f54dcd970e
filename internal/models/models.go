// ABOUTME: Shared model helpers: ids, timestamps, validation errors, guest owner.
// ABOUTME: Every entity is a plain struct with JSON tags matching the logical schema.
package models

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GuestUserID owns all data created while no user is signed in.
const GuestUserID = "local-guest-user"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid")

// NewID returns a fresh random entity identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current instant in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// NormalizeTags trims, lower-cases and de-duplicates tags, dropping empties.
// The result is sorted so equal tag sets compare equal.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ShortID returns the 8-character display prefix of an id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func strPtr(s string) *string {
	return &s
}
