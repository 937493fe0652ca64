package wizard

import "fmt"

// GoNext advances one step. It is a no-op on the last step, and refuses to
// leave "type" without a template or "date" without a date range.
func (s *State) GoNext() bool {
	i := s.Step.Index()
	if i < 0 || i == len(steps)-1 {
		return false
	}
	if !s.canLeave(s.Step) {
		return false
	}
	s.Step = steps[i+1]
	return true
}

// GoBack retreats one step. It returns false on the first step, where the
// caller should leave the wizard.
func (s *State) GoBack() bool {
	i := s.Step.Index()
	if i <= 0 {
		return false
	}
	s.Step = steps[i-1]
	return true
}

// GoToStep jumps to step. Backward jumps such as "customize" from confirm to
// host always work; forward jumps must not skip a required choice.
func (s *State) GoToStep(step Step) error {
	target := step.Index()
	if target < 0 {
		return fmt.Errorf("unknown step %q", step)
	}
	for i := s.Step.Index(); i >= 0 && i < target; i++ {
		if !s.canLeave(steps[i]) {
			return fmt.Errorf("cannot jump to %s: %s is incomplete", step, steps[i])
		}
	}
	s.Step = step
	return nil
}

func (s *State) canLeave(step Step) bool {
	switch step {
	case StepType:
		return s.Template() != nil
	case StepDate:
		return s.DateRange != nil
	default:
		return true
	}
}
