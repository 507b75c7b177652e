package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ErrInvalidCursor is returned for tokens that were not produced by Encode
// or that belong to a different filter than the one presented.
var ErrInvalidCursor = errors.New("invalid cursor")

// State is the resume point of a paginated search. LastID is the last
// service id the caller has seen; Fingerprint ties the token to the filter
// that produced it so a cursor cannot be replayed against another query.
type State struct {
	LastID      int    `json:"lastId"`
	Fingerprint string `json:"fp"`
}

// Encode turns a resume state into an opaque token. The token is URL-safe so
// it can travel as a query parameter without extra escaping.
func Encode(s State) string {
	b, _ := json.Marshal(s)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode is the inverse of Encode. Empty, malformed or tampered tokens fail
// with ErrInvalidCursor so callers can distinguish a bad request from
// end-of-stream (which is signalled by the absence of a token).
func Decode(token string) (State, error) {
	if token == "" {
		return State{}, ErrInvalidCursor
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return State{}, ErrInvalidCursor
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, ErrInvalidCursor
	}
	if s.Fingerprint == "" || s.LastID < 0 {
		return State{}, ErrInvalidCursor
	}
	return s, nil
}
