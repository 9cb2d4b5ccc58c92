package domain

import (
	"testing"
)

// FuzzParseActorID checks that parsing never panics on arbitrary input and
// that every accepted value survives a parse/format round trip.
func FuzzParseActorID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("550E8400-E29B-41D4-A716-446655440000")

	f.Fuzz(func(t *testing.T, raw string) {
		actorID, err := ParseActorID(raw)
		if err != nil {
			return
		}
		if actorID.IsNil() {
			t.Errorf("ParseActorID(%q) accepted the nil UUID", raw)
		}
		reparsed, err := ParseActorID(actorID.String())
		if err != nil {
			t.Errorf("round trip of %q failed: %v", raw, err)
		}
		if reparsed != actorID {
			t.Errorf("round trip of %q changed the value", raw)
		}
	})
}
