package wizard

import (
	"strings"

	"github.com/arosenfeld2003/lockstep/internal/errkind"
)

// Guard errors for each step, shown next to the step's input.
var (
	ErrNoTemplate    = errkind.Invalid("Pick an event type to continue")
	ErrBlankHost     = errkind.Invalid("Tell us who the event is for")
	ErrNoDateRange   = errkind.Invalid("Pick the event dates to continue")
	ErrBlankLocation = errkind.Invalid("Add a location to continue")
	ErrNoGuests      = errkind.Invalid("Add at least one guest")
)

// Guard checks whether the current step is complete. The presenting layer
// calls it before GoNext.
func Guard(s *State) error {
	switch s.Step {
	case StepType:
		if s.Template() == nil {
			return ErrNoTemplate
		}
	case StepHost:
		if strings.TrimSpace(s.HostName) == "" {
			return ErrBlankHost
		}
	case StepDate:
		if s.DateRange == nil {
			return ErrNoDateRange
		}
	case StepLocation:
		if strings.TrimSpace(s.LocationText) == "" {
			return ErrBlankLocation
		}
	case StepGuests:
		if len(s.Guests) == 0 {
			return ErrNoGuests
		}
	}
	return nil
}

// Advance runs Guard and, when it passes, moves to the next step.
func Advance(s *State) error {
	if err := Guard(s); err != nil {
		return err
	}
	s.GoNext()
	return nil
}
