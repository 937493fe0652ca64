package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arosenfeld2003/lockstep/internal/describe"
	"github.com/arosenfeld2003/lockstep/internal/photos"
	"github.com/arosenfeld2003/lockstep/internal/session"
	"github.com/arosenfeld2003/lockstep/internal/submit"
	"github.com/arosenfeld2003/lockstep/internal/template"
	"github.com/arosenfeld2003/lockstep/internal/wizard"
)

type fakeFunctions struct {
	descReqs []describe.Request
}

func (f *fakeFunctions) GenerateDescription(_ context.Context, req describe.Request) (describe.Response, error) {
	f.descReqs = append(f.descReqs, req)
	return describe.Response{Description: "Three days of mischief for " + req.HostName + ".", Model: "gemini-2.0-flash"}, nil
}

func (f *fakeFunctions) FetchPhotos(context.Context, photos.Request) (photos.Response, error) {
	return photos.Response{Photos: []photos.Photo{{ID: 1, Src: photos.Src{Landscape: "https://images.example/1.jpg"}}}}, nil
}

type fakeSubmitter struct {
	mu    sync.Mutex
	err   error
	calls int
	last  *wizard.State
}

func (f *fakeSubmitter) Submit(_ context.Context, st *wizard.State, observe func(submit.Progress)) (submit.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = st
	observe(submit.ProgressConnecting)
	if f.err != nil {
		observe(submit.ProgressError)
		return submit.Result{}, f.err
	}
	observe(submit.ProgressCreating)
	observe(submit.ProgressComplete)
	return submit.Result{EventID: "evt-1", Guests: submit.GuestRows(st.Guests)}, nil
}

func newTestModel(sub *fakeSubmitter) (*model, *wizard.MemoryStore, *fakeFunctions) {
	store := wizard.NewMemoryStore()
	fn := &fakeFunctions{}
	m := newModel(deps{
		Describer: fn,
		Photos:    fn,
		Submitter: sub,
		Session:   wizard.NewSession(store),
		Log:       zerolog.Nop(),
		Location:  time.UTC,
	}, wizard.New())
	return m, store, fn
}

func keys(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

// send feeds msg to m and runs the command it returns, feeding any
// resulting messages back in. Follow-up commands are not run so timers
// such as cursor blinks never block.
func send(t *testing.T, m *model, msg tea.Msg) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(msg)
	return cmd
}

func run1(t *testing.T, m *model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			run1(t, m, c)
		}
	default:
		m.Update(msg)
	}
}

func walkToGuests(t *testing.T, m *model) {
	t.Helper()
	for m.templates[m.cursor].ID != template.IDBucks {
		send(t, m, down)
	}
	send(t, m, enter)
	require.Equal(t, wizard.StepHost, m.st.Step)

	send(t, m, keys("Alex"))
	assert.Equal(t, "Alex's Bucks Weekend", m.st.EventName)
	send(t, m, enter)
	require.Equal(t, wizard.StepDate, m.st.Step)

	send(t, m, keys("2026-11-06"))
	send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	send(t, m, keys("2026-11-08"))
	send(t, m, enter)
	require.Equal(t, wizard.StepLocation, m.st.Step, "err: %v", m.err)

	send(t, m, keys("Hotel Grand"))
	cmd := send(t, m, enter)
	require.Equal(t, wizard.StepConfirm, m.st.Step)
	assert.Equal(t, wizard.DescriptionGenerating, m.st.DescriptionStatus)
	run1(t, m, cmd)

	send(t, m, enter)
	require.Equal(t, wizard.StepGuests, m.st.Step)
}

func TestWizardHappyPath(t *testing.T) {
	sub := &fakeSubmitter{}
	m, store, fn := newTestModel(sub)
	walkToGuests(t, m)

	assert.Equal(t, wizard.DescriptionReady, m.st.DescriptionStatus)
	assert.Equal(t, "Three days of mischief for Alex.", m.st.AIDescription)
	assert.Equal(t, "https://images.example/1.jpg", m.st.CoverImageURL)
	require.Len(t, fn.descReqs, 1)
	assert.Equal(t, " at Hotel Grand", describe.LocationPhrase(fn.descReqs[0].Location))

	send(t, m, keys("John Smith"))
	send(t, m, enter)
	send(t, m, keys("+61 412 345 678"))
	send(t, m, enter)
	assert.Equal(t, []string{"John Smith", "+61 412 345 678"}, m.st.Guests)
	assert.Contains(t, m.View(), "(phone)")

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wizard.StepGuests, saved.Step)

	cmd := send(t, m, enter)
	require.True(t, m.submitting())
	run1(t, m, cmd)

	require.NotNil(t, m.result)
	assert.Equal(t, "evt-1", m.result.EventID)
	assert.Equal(t, submit.ProgressComplete, m.progress)
	assert.Equal(t, 1, sub.calls)
	assert.Contains(t, m.View(), "Event created!")

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, wizard.ErrNoSnapshot)
}

func TestWizardGuardsShowErrors(t *testing.T) {
	m, _, _ := newTestModel(&fakeSubmitter{})
	send(t, m, enter)
	require.Equal(t, wizard.StepHost, m.st.Step)

	send(t, m, enter)
	assert.Equal(t, wizard.StepHost, m.st.Step)
	assert.ErrorIs(t, m.err, wizard.ErrBlankHost)

	send(t, m, keys("Sam"))
	send(t, m, enter)
	send(t, m, keys("06/11/2026"))
	send(t, m, enter)
	assert.Equal(t, wizard.StepDate, m.st.Step)
	assert.Contains(t, m.View(), "Start date must look like")
}

func TestWizardEscGoesBackThenQuits(t *testing.T) {
	m, store, _ := newTestModel(&fakeSubmitter{})
	send(t, m, enter)
	require.Equal(t, wizard.StepHost, m.st.Step)

	assert.Nil(t, send(t, m, esc))
	assert.Equal(t, wizard.StepType, m.st.Step)

	cmd := send(t, m, esc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)

	_, err := store.Load(context.Background())
	assert.NoError(t, err, "quitting should keep the draft")
}

func TestWizardSubmitFailureReturnsToPhaseStep(t *testing.T) {
	sub := &fakeSubmitter{err: &submit.PhaseError{Phase: submit.PhaseEvent, Err: errors.New("dial tcp: connection refused")}}
	m, _, _ := newTestModel(sub)
	walkToGuests(t, m)
	send(t, m, keys("John"))
	send(t, m, enter)

	run1(t, m, send(t, m, enter))

	assert.Nil(t, m.result)
	assert.False(t, m.submitting())
	assert.Equal(t, submit.ProgressError, m.progress)
	assert.Equal(t, wizard.StepConfirm, m.st.Step)
	assert.Contains(t, m.View(), "retry")
}

func TestWizardUnauthenticatedKeepsDraft(t *testing.T) {
	sub := &fakeSubmitter{err: fmt.Errorf("submit: %w", &submit.PhaseError{Phase: submit.PhaseSession, Err: session.ErrUnauthenticated})}
	m, store, _ := newTestModel(sub)
	walkToGuests(t, m)
	send(t, m, keys("John"))
	send(t, m, enter)

	run1(t, m, send(t, m, enter))

	assert.True(t, m.needLogin)
	assert.True(t, strings.Contains(m.View(), "lockstep login"))
	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, saved.ReadyToSubmit())
}

func TestWizardRemoveLastGuest(t *testing.T) {
	m, _, _ := newTestModel(&fakeSubmitter{})
	walkToGuests(t, m)
	send(t, m, keys("A"))
	send(t, m, enter)
	send(t, m, keys("B"))
	send(t, m, enter)
	send(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, []string{"A"}, m.st.Guests)
}

func TestWizardResumesAtSavedStep(t *testing.T) {
	st := wizard.New()
	require.NoError(t, st.SelectTemplate(template.IDDinner))
	st.SetHostName("Priya")
	st.Step = wizard.StepHost

	m := newModel(deps{Log: zerolog.Nop()}, st)
	assert.Equal(t, "Priya", m.host.Value())
	assert.Equal(t, template.IDDinner, m.templates[m.cursor].ID)
	assert.Contains(t, m.View(), "Who is it for?")
}
