// Package wizard holds the event creation flow: an explicit, serializable
// State that moves through six fixed steps.
package wizard

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arosenfeld2003/lockstep/internal/errkind"
	"github.com/arosenfeld2003/lockstep/internal/generator"
	"github.com/arosenfeld2003/lockstep/internal/template"
)

// Step is a position in the creation flow.
type Step string

const (
	StepType     Step = "type"
	StepHost     Step = "host"
	StepDate     Step = "date"
	StepLocation Step = "location"
	StepConfirm  Step = "confirm"
	StepGuests   Step = "guests"
)

var steps = []Step{StepType, StepHost, StepDate, StepLocation, StepConfirm, StepGuests}

// Steps returns the flow order.
func Steps() []Step {
	return append([]Step(nil), steps...)
}

// Index is the step's position in the flow, or -1 if unknown.
func (s Step) Index() int {
	for i, st := range steps {
		if st == s {
			return i
		}
	}
	return -1
}

// IsValid checks if the step is part of the flow.
func (s Step) IsValid() bool { return s.Index() >= 0 }

// DescriptionStatus tracks AI description generation.
type DescriptionStatus string

const (
	DescriptionIdle       DescriptionStatus = "idle"
	DescriptionGenerating DescriptionStatus = "generating"
	DescriptionReady      DescriptionStatus = "ready"
	DescriptionFailed     DescriptionStatus = "failed"
)

// DateRange is the inclusive span of the event.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Place is a resolved location.
type Place struct {
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
	PlaceID string  `json:"placeId,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// State accumulates the user's choices.
type State struct {
	DraftID string `json:"draftId"`
	Step    Step   `json:"step"`

	TemplateID          template.ID `json:"templateId,omitempty"`
	HostName            string      `json:"hostName"`
	EventName           string      `json:"eventName"`
	EventNameCustomized bool        `json:"isEventNameCustomized"`

	DateRange    *DateRange `json:"dateRange,omitempty"`
	Location     *Place     `json:"location,omitempty"`
	LocationText string     `json:"locationText"`

	AIDescription     string            `json:"aiDescription"`
	DescriptionStatus DescriptionStatus `json:"descriptionStatus"`
	DescriptionModel  string            `json:"descriptionModel,omitempty"`
	CoverImageURL     string            `json:"coverImageUrl,omitempty"`

	Blocks      generator.Source[template.Block]      `json:"customBlocks"`
	Questions   generator.Source[template.Question]   `json:"customQuestions"`
	Checkpoints generator.Source[template.Checkpoint] `json:"customCheckpoints"`

	Guests []string `json:"guests"`
}

// New returns a fresh state at the first step.
func New() *State {
	return &State{
		DraftID:           uuid.NewString(),
		Step:              StepType,
		DescriptionStatus: DescriptionIdle,
	}
}

// Template returns the selected template, or nil.
func (s *State) Template() *template.EventTemplate {
	if s.TemplateID == "" {
		return nil
	}
	t, _ := template.Lookup(s.TemplateID)
	return t
}

// SelectTemplate picks the event type. Switching types drops any
// customized blocks, questions and checkpoints.
func (s *State) SelectTemplate(id template.ID) error {
	if !id.IsValid() {
		return errkind.Invalid("Pick one of the event types")
	}
	if s.TemplateID != id {
		s.Blocks = generator.DefaultFrom[template.Block]()
		s.Questions = generator.DefaultFrom[template.Question]()
		s.Checkpoints = generator.DefaultFrom[template.Checkpoint]()
	}
	s.TemplateID = id
	s.refreshName()
	return nil
}

// SetHostName stores the host and regenerates the event name unless the
// user typed their own.
func (s *State) SetHostName(host string) {
	s.HostName = strings.TrimSpace(host)
	s.refreshName()
}

// SetEventName overrides the generated name. A blank name reverts to the
// generated one.
func (s *State) SetEventName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.EventNameCustomized = false
		s.refreshName()
		return
	}
	s.EventName = name
	s.EventNameCustomized = true
}

func (s *State) refreshName() {
	if s.EventNameCustomized {
		return
	}
	s.EventName = generator.GenerateEventName(s.Template(), s.HostName)
}

// SetDateRange stores the event dates.
func (s *State) SetDateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return errkind.Invalid("Pick a start and end date")
	}
	if end.Before(start) {
		return errkind.Invalid("The end date must be on or after the start date")
	}
	s.DateRange = &DateRange{Start: start, End: end}
	return nil
}

// SetLocation stores the raw location text and, when known, the resolved
// place.
func (s *State) SetLocation(text string, place *Place) {
	s.LocationText = strings.TrimSpace(text)
	s.Location = place
	if place == nil && s.LocationText != "" {
		s.Location = &Place{Name: s.LocationText}
	}
}

// BeginDescription marks generation as in flight.
func (s *State) BeginDescription() {
	s.DescriptionStatus = DescriptionGenerating
}

// SetDescription records a generated description. A "fallback" model marks
// canned text.
func (s *State) SetDescription(text, model string) {
	s.AIDescription = strings.TrimSpace(text)
	s.DescriptionModel = model
	s.DescriptionStatus = DescriptionReady
	if model == "fallback" || s.AIDescription == "" {
		s.DescriptionStatus = DescriptionFailed
	}
}

// CustomizeBlocks replaces the template's blocks.
func (s *State) CustomizeBlocks(blocks []template.Block) {
	s.Blocks = generator.Override(blocks)
}

// CustomizeQuestions replaces the template's questions.
func (s *State) CustomizeQuestions(questions []template.Question) {
	s.Questions = generator.Override(questions)
}

// CustomizeCheckpoints replaces the template's checkpoints.
func (s *State) CustomizeCheckpoints(checkpoints []template.Checkpoint) {
	s.Checkpoints = generator.Override(checkpoints)
}

// AddGuest appends a name or phone number. Blank entries are ignored.
func (s *State) AddGuest(entry string) bool {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return false
	}
	s.Guests = append(s.Guests, entry)
	return true
}

// RemoveGuest drops the guest at index i.
func (s *State) RemoveGuest(i int) {
	if i < 0 || i >= len(s.Guests) {
		return
	}
	s.Guests = append(s.Guests[:i], s.Guests[i+1:]...)
}

// Overrides returns the customizations for generation.
func (s *State) Overrides() generator.Overrides {
	return generator.Overrides{
		Blocks:      s.Blocks,
		Questions:   s.Questions,
		Checkpoints: s.Checkpoints,
	}
}

// Plan expands the selected template into rows.
func (s *State) Plan() (generator.Plan, error) {
	t := s.Template()
	if t == nil {
		return generator.Plan{}, errkind.Invalid("Pick an event type first")
	}
	if s.DateRange == nil {
		return generator.Plan{}, errkind.Invalid("Pick the event dates first")
	}
	return generator.Expand(t, s.Overrides(), s.DateRange.Start, s.DateRange.End)
}

// ReadyToSubmit reports whether the state reached the last step with at
// least one guest.
func (s *State) ReadyToSubmit() bool {
	return s.Step == StepGuests && len(s.Guests) > 0
}
