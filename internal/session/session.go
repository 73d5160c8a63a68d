package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one visitor's server-side state. Values set during a request
// stay live until the session is encoded for the store, so encoding errors
// surface at save time, not at Set time.
type Session struct {
	id        string
	raw       map[string]json.RawMessage
	live      map[string]any
	expiresAt time.Time
	modified  bool
	isNew     bool
	staleIDs  []string
}

func New() *Session {
	return &Session{
		id:    newID(),
		raw:   map[string]json.RawMessage{},
		live:  map[string]any{},
		isNew: true,
	}
}

// Restore rebuilds a session from its stored form.
func Restore(id string, data []byte, expiresAt time.Time) (*Session, error) {
	raw := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", id, err)
		}
	}
	return &Session{
		id:        id,
		raw:       raw,
		live:      map[string]any{},
		expiresAt: expiresAt,
	}, nil
}

func (s *Session) ID() string           { return s.id }
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }
func (s *Session) IsNew() bool          { return s.isNew }
func (s *Session) Modified() bool       { return s.modified }

// MarkModified tells the middleware to persist the session when the
// response is committed.
func (s *Session) MarkModified() { s.modified = true }

// Get decodes the value under key into dst and reports whether it exists.
func (s *Session) Get(key string, dst any) (bool, error) {
	if v, ok := s.live[key]; ok {
		b, err := json.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("session key %q: %w", key, err)
		}
		return true, json.Unmarshal(b, dst)
	}

	b, ok := s.raw[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return true, fmt.Errorf("session key %q: %w", key, err)
	}
	return true, nil
}

// Set stores v under key and marks the session modified. v is encoded
// when the session is saved, so later changes to a map or pointer v are
// saved too.
func (s *Session) Set(key string, v any) {
	delete(s.raw, key)
	s.live[key] = v
	s.modified = true
}

// Delete removes key. The session is marked modified only if the key was
// there.
func (s *Session) Delete(key string) bool {
	_, inRaw := s.raw[key]
	_, inLive := s.live[key]
	if !inRaw && !inLive {
		return false
	}
	delete(s.raw, key)
	delete(s.live, key)
	s.modified = true
	return true
}

func (s *Session) Has(key string) bool {
	if _, ok := s.live[key]; ok {
		return true
	}
	_, ok := s.raw[key]
	return ok
}

func (s *Session) Empty() bool {
	return len(s.raw) == 0 && len(s.live) == 0
}

// Flush drops every value and moves the session to a fresh id. The old id
// is deleted from the store on the next save.
func (s *Session) Flush() {
	s.staleIDs = append(s.staleIDs, s.id)
	s.id = newID()
	s.raw = map[string]json.RawMessage{}
	s.live = map[string]any{}
	s.modified = true
	s.isNew = true
}

// CycleID moves the session to a fresh id and keeps its values. Login uses
// it so a session id seen before authentication is not reused after.
func (s *Session) CycleID() {
	s.staleIDs = append(s.staleIDs, s.id)
	s.id = newID()
	s.modified = true
	s.isNew = true
}

// Encode returns the stored form: a JSON object of every value.
func (s *Session) Encode() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.raw)+len(s.live))
	for k, v := range s.raw {
		out[k] = v
	}
	for k, v := range s.live {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode session key %q: %w", k, err)
		}
		out[k] = b
	}
	return json.Marshal(out)
}

func newID() string {
	return uuid.NewString()
}
