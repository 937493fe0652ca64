package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/arosenfeld2003/lockstep/internal/describe"
	"github.com/arosenfeld2003/lockstep/internal/errkind"
	"github.com/arosenfeld2003/lockstep/internal/photos"
	"github.com/arosenfeld2003/lockstep/internal/session"
	"github.com/arosenfeld2003/lockstep/internal/submit"
	"github.com/arosenfeld2003/lockstep/internal/template"
	"github.com/arosenfeld2003/lockstep/internal/wizard"
)

const dateLayout = "2006-01-02"

// Describer writes event descriptions. *functions.Client satisfies it.
type Describer interface {
	GenerateDescription(ctx context.Context, req describe.Request) (describe.Response, error)
}

// PhotoFinder searches cover photos. *functions.Client satisfies it.
type PhotoFinder interface {
	FetchPhotos(ctx context.Context, req photos.Request) (photos.Response, error)
}

// Submitter is satisfied by *submit.Submitter.
type Submitter interface {
	Submit(ctx context.Context, st *wizard.State, observe func(submit.Progress)) (submit.Result, error)
}

type deps struct {
	Describer Describer
	Photos    PhotoFinder
	Submitter Submitter
	Session   *wizard.Session
	Log       zerolog.Logger
	Location  *time.Location
}

type (
	descriptionMsg describe.Response
	coverMsg       string
	progressMsg    submit.Progress
	submittedMsg   struct {
		res submit.Result
		err error
	}
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B0643C"))
	promptStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A6E66"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0643C"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0392B"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(64)
)

// model is the Bubble Tea model for the create-event wizard. All flow rules
// live in wizard.State; the model only maps keys onto it.
type model struct {
	deps deps
	st   *wizard.State

	templates []*template.EventTemplate
	cursor    int

	host     textinput.Model
	start    textinput.Model
	end      textinput.Model
	place    textinput.Model
	guest    textinput.Model
	spin     spinner.Model
	editDate int // 0 editing start, 1 editing end

	err       error
	progress  submit.Progress
	progCh    chan submit.Progress
	result    *submit.Result
	needLogin bool
	quitting  bool
}

func newModel(d deps, st *wizard.State) *model {
	if d.Location == nil {
		d.Location = time.Local
	}
	input := func(placeholder string, limit int) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = limit
		ti.Width = 40
		return ti
	}
	m := &model{
		deps:      d,
		st:        st,
		templates: template.All(),
		host:      input("Alex", 120),
		start:     input(dateLayout, 10),
		end:       input(dateLayout, 10),
		place:     input("Hotel Grand, Sydney", 200),
		guest:     input("Name or phone number", 120),
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress:  submit.ProgressIdle,
	}
	m.host.SetValue(st.HostName)
	if st.DateRange != nil {
		m.start.SetValue(st.DateRange.Start.Format(dateLayout))
		m.end.SetValue(st.DateRange.End.Format(dateLayout))
	}
	m.place.SetValue(st.LocationText)
	for i, t := range m.templates {
		if t.ID == st.TemplateID {
			m.cursor = i
		}
	}
	m.focus()
	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// focus points keyboard input at the current step's field.
func (m *model) focus() {
	for _, ti := range []*textinput.Model{&m.host, &m.start, &m.end, &m.place, &m.guest} {
		ti.Blur()
	}
	switch m.st.Step {
	case wizard.StepHost:
		m.host.Focus()
	case wizard.StepDate:
		if m.editDate == 0 {
			m.start.Focus()
		} else {
			m.end.Focus()
		}
	case wizard.StepLocation:
		m.place.Focus()
	case wizard.StepGuests:
		m.guest.Focus()
	}
}

func (m *model) submitting() bool {
	return m.progCh != nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case descriptionMsg:
		m.st.SetDescription(msg.Description, msg.Model)
		m.save()
		return m, nil

	case coverMsg:
		m.st.CoverImageURL = string(msg)
		return m, nil

	case progressMsg:
		if !m.submitting() {
			return m, nil
		}
		m.progress = submit.Progress(msg)
		return m, waitProgress(m.progCh)

	case submittedMsg:
		return m.handleSubmitted(msg)
	}

	return m.updateInput(msg)
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		m.save()
		return m, tea.Quit
	}
	if m.result != nil {
		m.quitting = true
		return m, tea.Quit
	}
	if m.submitting() {
		return m, nil
	}

	m.err = nil
	switch msg.String() {
	case "esc":
		if !m.st.GoBack() {
			m.quitting = true
			m.save()
			return m, tea.Quit
		}
		m.editDate = 0
		m.focus()
		m.save()
		return m, nil
	case "enter":
		return m.handleEnter()
	}

	switch m.st.Step {
	case wizard.StepType:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.templates)-1 {
				m.cursor++
			}
		}
		return m, nil
	case wizard.StepConfirm:
		switch msg.String() {
		case "r":
			return m, m.generateDescription()
		case "e":
			_ = m.st.GoToStep(wizard.StepHost)
			m.focus()
		}
		return m, nil
	case wizard.StepGuests:
		if msg.String() == "ctrl+d" && len(m.st.Guests) > 0 {
			m.st.RemoveGuest(len(m.st.Guests) - 1)
			m.save()
			return m, nil
		}
	case wizard.StepDate:
		if msg.String() == "tab" {
			m.editDate = 1 - m.editDate
			m.focus()
			return m, nil
		}
	}
	return m.updateInput(msg)
}

func (m *model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.st.Step {
	case wizard.StepHost:
		m.host, cmd = m.host.Update(msg)
		m.st.SetHostName(m.host.Value())
	case wizard.StepDate:
		if m.editDate == 0 {
			m.start, cmd = m.start.Update(msg)
		} else {
			m.end, cmd = m.end.Update(msg)
		}
	case wizard.StepLocation:
		m.place, cmd = m.place.Update(msg)
	case wizard.StepGuests:
		m.guest, cmd = m.guest.Update(msg)
	}
	return m, cmd
}

func (m *model) handleEnter() (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.st.Step {
	case wizard.StepType:
		if err := m.st.SelectTemplate(m.templates[m.cursor].ID); err != nil {
			m.err = err
			return m, nil
		}
	case wizard.StepHost:
		m.st.SetHostName(m.host.Value())
	case wizard.StepDate:
		if m.editDate == 0 && strings.TrimSpace(m.end.Value()) == "" {
			m.end.SetValue(m.start.Value())
		}
		if err := m.applyDates(); err != nil {
			m.err = err
			return m, nil
		}
	case wizard.StepLocation:
		m.st.SetLocation(m.place.Value(), nil)
		if err := wizard.Guard(m.st); err == nil {
			cmd = tea.Batch(m.generateDescription(), m.findCover())
		}
	case wizard.StepGuests:
		if m.st.AddGuest(m.guest.Value()) {
			m.guest.Reset()
			m.save()
			return m, nil
		}
		if err := wizard.Guard(m.st); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.startSubmit()
	}

	if err := wizard.Advance(m.st); err != nil {
		m.err = err
		return m, nil
	}
	m.editDate = 0
	m.focus()
	m.save()
	return m, cmd
}

func (m *model) applyDates() error {
	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(m.start.Value()), m.deps.Location)
	if err != nil {
		return errkind.Invalid("Start date must look like " + dateLayout)
	}
	end, err := time.ParseInLocation(dateLayout, strings.TrimSpace(m.end.Value()), m.deps.Location)
	if err != nil {
		return errkind.Invalid("End date must look like " + dateLayout)
	}
	return m.st.SetDateRange(start, end)
}

func (m *model) save() {
	if m.deps.Session == nil {
		return
	}
	if err := m.deps.Session.Suspend(context.Background(), m.st); err != nil {
		m.deps.Log.Warn().Err(err).Msg("save draft")
	}
}

func (m *model) generateDescription() tea.Cmd {
	if m.deps.Describer == nil {
		return nil
	}
	m.st.BeginDescription()
	req := describe.Request{
		EventType: m.st.TemplateID,
		HostName:  m.st.HostName,
		Location:  m.st.LocationText,
	}
	if dr := m.st.DateRange; dr != nil {
		req.DateRange = &describe.DateRange{Start: dr.Start, End: dr.End}
	}
	d, log := m.deps.Describer, m.deps.Log
	return func() tea.Msg {
		resp, err := d.GenerateDescription(context.Background(), req)
		if err != nil {
			log.Warn().Err(err).Msg("generate description")
			return descriptionMsg{Model: "fallback"}
		}
		return descriptionMsg(resp)
	}
}

func (m *model) findCover() tea.Cmd {
	t := m.st.Template()
	if m.deps.Photos == nil || t == nil {
		return nil
	}
	p, log := m.deps.Photos, m.deps.Log
	query := t.Label
	return func() tea.Msg {
		resp, err := p.FetchPhotos(context.Background(), photos.Request{Query: query, PerPage: 1})
		if err != nil || len(resp.Photos) == 0 {
			if err != nil {
				log.Debug().Err(err).Msg("fetch cover photo")
			}
			return nil
		}
		return coverMsg(resp.Photos[0].Src.Landscape)
	}
}

func (m *model) startSubmit() tea.Cmd {
	if m.deps.Submitter == nil {
		m.err = errors.New("submission is not configured")
		return nil
	}
	ch := make(chan submit.Progress, 8)
	m.progCh = ch
	m.progress = submit.ProgressConnecting
	m.save()

	sub, st := m.deps.Submitter, m.st
	run := func() tea.Msg {
		res, err := sub.Submit(context.Background(), st, func(p submit.Progress) { ch <- p })
		close(ch)
		return submittedMsg{res: res, err: err}
	}
	return tea.Batch(run, waitProgress(ch))
}

// waitProgress relays one progress change, then re-arms on the next
// progressMsg. A closed channel yields nothing.
func waitProgress(ch <-chan submit.Progress) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(p)
	}
}

func (m *model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	m.progCh = nil
	if msg.err == nil {
		m.progress = submit.ProgressComplete
		m.result = &msg.res
		if m.deps.Session != nil {
			if err := m.deps.Session.Complete(context.Background()); err != nil {
				m.deps.Log.Warn().Err(err).Msg("clear draft")
			}
		}
		return m, nil
	}

	m.progress = submit.ProgressError
	m.err = msg.err
	if errors.Is(msg.err, session.ErrUnauthenticated) {
		m.needLogin = true
		m.save()
		return m, nil
	}
	var pe *submit.PhaseError
	if errors.As(msg.err, &pe) && pe.Phase.Step() != m.st.Step {
		_ = m.st.GoToStep(pe.Phase.Step())
		m.focus()
	}
	return m, nil
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Lockstep · create an event"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.stepper()))
	b.WriteString("\n\n")

	if m.result != nil {
		b.WriteString(okStyle.Render("Event created!"))
		fmt.Fprintf(&b, "\n\n  %s\n  id %s\n  %d guests invited\n\n", m.st.EventName, m.result.EventID, len(m.result.Guests))
		b.WriteString(dimStyle.Render("Press any key to exit."))
		return b.String()
	}

	switch m.st.Step {
	case wizard.StepType:
		b.WriteString(promptStyle.Render("What are you planning?"))
		b.WriteString("\n\n")
		for i, t := range m.templates {
			line := fmt.Sprintf("%s %s", t.Icon, t.Label)
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> " + line))
				b.WriteString("  " + dimStyle.Render(t.Blurb))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	case wizard.StepHost:
		b.WriteString(promptStyle.Render("Who is it for?"))
		b.WriteString("\n\n  " + m.host.View() + "\n")
		if m.st.EventName != "" {
			b.WriteString("\n  " + dimStyle.Render(m.st.EventName) + "\n")
		}
	case wizard.StepDate:
		b.WriteString(promptStyle.Render("When is it?"))
		b.WriteString("\n\n  Start " + m.start.View())
		b.WriteString("\n  End   " + m.end.View() + "\n")
		b.WriteString(dimStyle.Render("  tab switches fields") + "\n")
	case wizard.StepLocation:
		b.WriteString(promptStyle.Render("Where is it?"))
		b.WriteString("\n\n  " + m.place.View() + "\n")
		if t := m.st.Template(); t != nil && len(t.SuggestedLocations) > 0 {
			b.WriteString("\n  " + dimStyle.Render("Ideas: "+strings.Join(t.SuggestedLocations, ", ")) + "\n")
		}
	case wizard.StepConfirm:
		b.WriteString(m.confirmView())
	case wizard.StepGuests:
		b.WriteString(m.guestsView())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(errkind.Message(m.err)))
		switch {
		case m.needLogin:
			b.WriteString("\n" + dimStyle.Render("Your draft is saved. Run `lockstep login`, then start lockstep again to finish."))
		case errkind.Classify(m.err).Retryable():
			b.WriteString("\n" + dimStyle.Render("Press enter to retry."))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help()))
	return b.String()
}

func (m *model) stepper() string {
	parts := make([]string, 0, len(wizard.Steps()))
	for _, s := range wizard.Steps() {
		if s == m.st.Step {
			parts = append(parts, "["+string(s)+"]")
		} else {
			parts = append(parts, string(s))
		}
	}
	return strings.Join(parts, " › ")
}

func (m *model) confirmView() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render(m.st.EventName))
	b.WriteString("\n")
	if dr := m.st.DateRange; dr != nil {
		fmt.Fprintf(&b, "%s to %s", dr.Start.Format("Mon 2 Jan 2006"), dr.End.Format("Mon 2 Jan 2006"))
	}
	if m.st.LocationText != "" {
		b.WriteString(" · " + m.st.LocationText)
	}
	b.WriteString("\n\n")

	switch m.st.DescriptionStatus {
	case wizard.DescriptionGenerating:
		b.WriteString(m.spin.View() + " Writing a description...")
	case wizard.DescriptionReady:
		b.WriteString(m.st.AIDescription)
	case wizard.DescriptionFailed:
		if m.st.AIDescription != "" {
			b.WriteString(m.st.AIDescription)
		} else {
			b.WriteString(dimStyle.Render("No description yet. Press r to try again."))
		}
	}
	b.WriteString("\n\n")

	plan, err := m.st.Plan()
	if err != nil {
		b.WriteString(errorStyle.Render(errkind.Message(err)))
	} else {
		fmt.Fprintf(&b, "%d blocks · %d questions · %d reminders\n", len(plan.Blocks), len(plan.Questions), len(plan.Checkpoints))
		for _, blk := range plan.Blocks {
			fmt.Fprintf(&b, "  %s  %s\n", blk.StartTime.Format("Mon 15:04"), blk.Name)
		}
	}
	return boxStyle.Render(b.String()) + "\n"
}

func (m *model) guestsView() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("Who's invited?"))
	b.WriteString("\n\n")
	for _, g := range m.st.Guests {
		if row, ok := submit.ClassifyGuest(g); ok && row.Phone != nil {
			b.WriteString("  • " + g + dimStyle.Render(" (phone)") + "\n")
		} else {
			b.WriteString("  • " + g + "\n")
		}
	}
	b.WriteString("\n  " + m.guest.View() + "\n")
	if m.submitting() {
		b.WriteString("\n" + m.spin.View() + " " + progressLabel(m.progress) + "\n")
	}
	return b.String()
}

func progressLabel(p submit.Progress) string {
	switch p {
	case submit.ProgressConnecting:
		return "Checking your session..."
	case submit.ProgressCreating:
		return "Creating your event..."
	case submit.ProgressAddingDetails:
		return "Adding the schedule and reminders..."
	case submit.ProgressFinalizing:
		return "Inviting guests..."
	default:
		return string(p)
	}
}

func (m *model) help() string {
	switch m.st.Step {
	case wizard.StepType:
		return "↑/↓ choose · enter next · esc quit"
	case wizard.StepConfirm:
		return "enter continue · r rewrite description · e edit details · esc back"
	case wizard.StepGuests:
		return "enter add guest (blank to create) · ctrl+d remove last · esc back"
	default:
		return "enter next · esc back · ctrl+c save and quit"
	}
}
