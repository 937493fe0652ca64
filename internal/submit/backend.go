package submit

import (
	"context"
	"time"

	"github.com/arosenfeld2003/lockstep/internal/generator"
	"github.com/arosenfeld2003/lockstep/internal/template"
	"github.com/arosenfeld2003/lockstep/internal/wizard"
)

// EventStatus values for the events table.
const (
	StatusActive = "active"
	StatusDraft  = "draft"
)

// Settings is stored in the event's settings column.
type Settings struct {
	TemplateID template.ID   `json:"templateId"`
	HostName   string        `json:"hostName"`
	Place      *wizard.Place `json:"place,omitempty"`
	Model      string        `json:"descriptionModel,omitempty"`
}

// EventRow is an events table insert.
type EventRow struct {
	Title         string
	Description   string
	Location      string
	StartDate     time.Time
	EndDate       time.Time
	Status        string
	CoverImageURL string
	Settings      Settings
	OrganiserID   string
}

// Backend is the storage the pipeline writes to. Every call should honor
// ctx.
type Backend interface {
	// VerifySession returns the signed-in organiser's id, or an error
	// wrapping session.ErrUnauthenticated.
	VerifySession(ctx context.Context) (string, error)
	InsertEvent(ctx context.Context, row EventRow) (string, error)
	InsertBlocks(ctx context.Context, eventID string, rows []generator.BlockRow) error
	InsertQuestions(ctx context.Context, eventID string, rows []generator.QuestionRow) error
	InsertCheckpoints(ctx context.Context, eventID string, rows []generator.CheckpointRow) error
	InsertGuests(ctx context.Context, eventID string, rows []GuestRow) error
}

// Created describes a newly created event.
type Created struct {
	EventID     string    `json:"event_id"`
	OrganiserID string    `json:"organiser_id"`
	Title       string    `json:"title"`
	StartDate   time.Time `json:"start_date"`
	Guests      int       `json:"guests"`
	Checkpoints int       `json:"checkpoints"`
}

// Notifier announces created events. Optional.
type Notifier interface {
	NotifyCreated(ctx context.Context, c Created) error
}
