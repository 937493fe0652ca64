package generator

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Item is an editable list entry. LocalID only identifies the entry while it
// is being edited and is never sent to the backend.
type Item[T any] struct {
	LocalID string `json:"localId"`
	Value   T      `json:"value"`
}

// NewItem wraps v with a fresh local id.
func NewItem[T any](v T) Item[T] {
	return Item[T]{LocalID: uuid.NewString(), Value: v}
}

// Source selects between a template's default list and a user override.
// The zero value means defaults.
type Source[T any] struct {
	items    []Item[T]
	override bool
}

// DefaultFrom uses the template's list.
func DefaultFrom[T any]() Source[T] {
	return Source[T]{}
}

// Override replaces the template's list with values. An empty override is
// valid and produces no rows.
func Override[T any](values []T) Source[T] {
	items := make([]Item[T], len(values))
	for i, v := range values {
		items[i] = NewItem(v)
	}
	return Source[T]{items: items, override: true}
}

// OverrideItems is Override for entries that already carry local ids.
func OverrideItems[T any](items []Item[T]) Source[T] {
	return Source[T]{items: append([]Item[T](nil), items...), override: true}
}

// IsOverride reports whether the source replaces the defaults.
func (s Source[T]) IsOverride() bool { return s.override }

// Items returns the override entries, or nil for defaults.
func (s Source[T]) Items() []Item[T] {
	if !s.override {
		return nil
	}
	return append([]Item[T](nil), s.items...)
}

// Resolve returns the override list when set, otherwise defaults.
func (s Source[T]) Resolve(defaults []T) []T {
	if !s.override {
		return defaults
	}
	out := make([]T, len(s.items))
	for i, it := range s.items {
		out[i] = it.Value
	}
	return out
}

type sourceJSON[T any] struct {
	Kind  string    `json:"kind"`
	Items []Item[T] `json:"items,omitempty"`
}

const (
	kindDefault  = "default"
	kindOverride = "override"
)

// MarshalJSON encodes the variant tag alongside any override entries.
func (s Source[T]) MarshalJSON() ([]byte, error) {
	if !s.override {
		return json.Marshal(sourceJSON[T]{Kind: kindDefault})
	}
	items := s.items
	if items == nil {
		items = []Item[T]{}
	}
	return json.Marshal(struct {
		Kind  string    `json:"kind"`
		Items []Item[T] `json:"items"`
	}{kindOverride, items})
}

// UnmarshalJSON decodes a value produced by MarshalJSON. null decodes to
// defaults.
func (s *Source[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Source[T]{}
		return nil
	}
	var raw sourceJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case kindDefault, "":
		*s = Source[T]{}
	case kindOverride:
		*s = Source[T]{items: raw.Items, override: true}
	default:
		return fmt.Errorf("unknown source kind %q", raw.Kind)
	}
	return nil
}
