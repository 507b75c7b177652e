package cursor

import (
	"encoding/base64"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	states := []State{
		{LastID: 0, Fingerprint: "abc123"},
		{LastID: 1, Fingerprint: "deadbeef"},
		{LastID: 987654321, Fingerprint: "f0f0f0f0f0f0f0f0"},
	}
	for _, want := range states {
		token := Encode(want)
		got, err := Decode(token)
		if err != nil {
			t.Fatalf("Decode(Encode(%+v)) returned error: %v", want, err)
		}
		if got != want {
			t.Fatalf("roundtrip mismatch: got %+v want %+v", got, want)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"not base64 !!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"lastId":5}`)),           // missing fingerprint
		base64.RawURLEncoding.EncodeToString([]byte(`{"lastId":-1,"fp":"x"}`)), // negative resume key
	}
	for _, token := range cases {
		if _, err := Decode(token); err != ErrInvalidCursor {
			t.Fatalf("Decode(%q) = %v, want ErrInvalidCursor", token, err)
		}
	}
}

func TestTokenIsURLSafe(t *testing.T) {
	token := Encode(State{LastID: 12345, Fingerprint: "0123456789abcdef"})
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			t.Fatalf("token contains non URL-safe character %q: %s", r, token)
		}
	}
}
