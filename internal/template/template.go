// Package template holds the built-in event templates and the enums they
// are made of.
package template

import (
	"fmt"
	"strings"
)

// ID identifies one of the built-in event templates.
type ID string

const (
	IDWedding  ID = "wedding"
	IDBucks    ID = "bucks"
	IDHens     ID = "hens"
	IDBirthday ID = "birthday"
	IDTrip     ID = "trip"
	IDReunion  ID = "reunion"
	IDDinner   ID = "dinner"
	IDCustom   ID = "custom"
)

// IsValid checks if the id names a built-in template.
func (id ID) IsValid() bool {
	_, ok := registry[id]
	return ok
}

// ParseID converts user input into a template ID.
func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if !id.IsValid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return id, nil
}

// QuestionType is the input kind of a guest question.
type QuestionType string

const (
	QuestionBoolean      QuestionType = "boolean"
	QuestionSingleSelect QuestionType = "single_select"
	QuestionMultiSelect  QuestionType = "multi_select"
	QuestionText         QuestionType = "text"
	QuestionNumber       QuestionType = "number"
)

// IsValid checks if the question type is a known value.
func (q QuestionType) IsValid() bool {
	switch q {
	case QuestionBoolean, QuestionSingleSelect, QuestionMultiSelect, QuestionText, QuestionNumber:
		return true
	default:
		return false
	}
}

// HasOptions reports whether the type draws its answer from a choice set.
func (q QuestionType) HasOptions() bool {
	return q == QuestionSingleSelect || q == QuestionMultiSelect
}

// CheckpointType classifies a scheduled checkpoint.
type CheckpointType string

const (
	CheckpointReminder CheckpointType = "reminder"
	CheckpointDeadline CheckpointType = "deadline"
	CheckpointFinal    CheckpointType = "final"
)

// IsValid checks if the checkpoint type is a known value.
func (c CheckpointType) IsValid() bool {
	switch c {
	case CheckpointReminder, CheckpointDeadline, CheckpointFinal:
		return true
	default:
		return false
	}
}

// CheckpointTypes lists every checkpoint type in firing priority order.
func CheckpointTypes() []CheckpointType {
	return []CheckpointType{CheckpointReminder, CheckpointDeadline, CheckpointFinal}
}

// Response is a guest's RSVP answer for a block.
type Response string

const (
	ResponseIn    Response = "in"
	ResponseMaybe Response = "maybe"
	ResponseOut   Response = "out"
)

// IsValid checks if the response is a known value.
func (r Response) IsValid() bool {
	switch r {
	case ResponseIn, ResponseMaybe, ResponseOut:
		return true
	default:
		return false
	}
}

// Block is a named time span guests RSVP to individually.
type Block struct {
	Name                 string  `json:"name"`
	DefaultDurationHours float64 `json:"defaultDurationHours"`
	AttendanceRequired   bool    `json:"attendanceRequired"`
}

// Question is a typed prompt shown to guests.
type Question struct {
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required,omitempty"`
}

// Checkpoint is a reminder or deadline relative to the event start.
// OffsetDays is negative for checkpoints before the event.
type Checkpoint struct {
	OffsetDays    int            `json:"offsetDays"`
	Type          CheckpointType `json:"type"`
	Name          string         `json:"name"`
	AutoResolveTo *Response      `json:"autoResolveTo,omitempty"`
}

// EventTemplate is an immutable bundle of defaults for one kind of event.
type EventTemplate struct {
	ID                 ID
	Label              string
	Icon               string
	Blurb              string
	NamePattern        func(host string) string
	Blocks             []Block
	Questions          []Question
	Checkpoints        []Checkpoint
	SuggestedLocations []string
}

// Lookup returns the template registered under id.
func Lookup(id ID) (*EventTemplate, bool) {
	t, ok := registry[id]
	return t, ok
}

// MustLookup is Lookup for ids known at compile time.
func MustLookup(id ID) *EventTemplate {
	t, ok := registry[id]
	if !ok {
		panic(fmt.Sprintf("template: unknown id %q", id))
	}
	return t
}

// All returns every template in display order.
func All() []*EventTemplate {
	out := make([]*EventTemplate, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id])
	}
	return out
}

// MakePossessive formats name as a possessive. Names ending in "s" or "S"
// take a bare apostrophe.
func MakePossessive(name string) string {
	if name == "" {
		return ""
	}
	if strings.HasSuffix(strings.ToLower(name), "s") {
		return name + "'"
	}
	return name + "'s"
}
