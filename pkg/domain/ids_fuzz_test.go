//go:build go1.18

package domain

import (
	"strings"
	"testing"
)

// FuzzParseUserID checks that parsing never panics and that accepted ids
// round-trip and never contain path separators.
func FuzzParseUserID(f *testing.F) {
	f.Add("")
	f.Add("user1")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("../../etc/passwd")
	f.Add("'; DROP TABLE entities;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseUserID(input)
		if err != nil {
			return
		}
		if strings.ContainsAny(id.String(), `/\`) {
			t.Errorf("accepted id with separator: %q", id)
		}
		again, err := ParseUserID(id.String())
		if err != nil {
			t.Errorf("valid ID failed round-trip: %v", err)
		}
		if again != id {
			t.Error("round-trip changed ID value")
		}
	})
}
