// Package generator expands an event template into calendar-anchored rows.
package generator

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/arosenfeld2003/lockstep/internal/template"
)

// ErrEndBeforeStart is returned when a date range ends before it starts.
var ErrEndBeforeStart = errors.New("end date is before start date")

// BlockRow is a block anchored to absolute timestamps.
type BlockRow struct {
	Name               string    `json:"name"`
	StartTime          time.Time `json:"start_time"`
	EndTime            time.Time `json:"end_time"`
	OrderIndex         int       `json:"order_index"`
	AttendanceRequired bool      `json:"attendance_required"`
}

// QuestionRow is a guest question ready for insert.
type QuestionRow struct {
	Type       template.QuestionType `json:"type"`
	Prompt     string                `json:"prompt"`
	Options    []string              `json:"options,omitempty"`
	Required   bool                  `json:"required"`
	OrderIndex int                   `json:"order_index"`
}

// CheckpointRow is a checkpoint with an absolute trigger time.
type CheckpointRow struct {
	TriggerAt     time.Time               `json:"trigger_at"`
	Type          template.CheckpointType `json:"type"`
	Message       string                  `json:"message"`
	AutoResolveTo *template.Response      `json:"auto_resolve_to,omitempty"`
}

// MakePossessive formats a host name as a possessive.
func MakePossessive(name string) string {
	return template.MakePossessive(name)
}

// GenerateEventName returns the template title for host, or "" when the
// host name is blank.
func GenerateEventName(t *template.EventTemplate, host string) string {
	host = strings.TrimSpace(host)
	if host == "" || t == nil || t.NamePattern == nil {
		return ""
	}
	return t.NamePattern(host)
}

// hourKeywords is checked in order; the first match wins.
var hourKeywords = []struct {
	words []string
	hour  int
}{
	{[]string{"morning", "breakfast", "brunch"}, 9},
	{[]string{"lunch"}, 12},
	{[]string{"dinner"}, 18},
	{[]string{"evening", "night"}, 20},
	{[]string{"arrival"}, 14},
	{[]string{"departure", "recovery"}, 10},
}

const defaultStartHour = 10

// StartHour picks the hour of day a block starts at from its name.
func StartHour(name string) int {
	lower := strings.ToLower(name)
	for _, kw := range hourKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				return kw.hour
			}
		}
	}
	return defaultStartHour
}

// TotalDays is the number of calendar days blocks are spread over.
func TotalDays(start, end time.Time) int {
	days := math.Ceil(end.Sub(start).Hours() / 24)
	return int(days) + 1
}

// GenerateBlocks spreads blocks evenly across the days of [start, end],
// filling each day in order. Overlapping blocks are not adjusted.
func GenerateBlocks(blocks []template.Block, start, end time.Time) ([]BlockRow, error) {
	if end.Before(start) {
		return nil, ErrEndBeforeStart
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	totalDays := TotalDays(start, end)
	perDay := (len(blocks) + totalDays - 1) / totalDays
	y, m, d := start.Date()

	rows := make([]BlockRow, 0, len(blocks))
	for i, b := range blocks {
		offset := i / perDay
		begin := time.Date(y, m, d+offset, StartHour(b.Name), 0, 0, 0, start.Location())
		rows = append(rows, BlockRow{
			Name:               b.Name,
			StartTime:          begin,
			EndTime:            begin.Add(hoursToDuration(b.DefaultDurationHours)),
			OrderIndex:         i,
			AttendanceRequired: b.AttendanceRequired,
		})
	}
	return rows, nil
}

// GenerateQuestions numbers questions in order.
func GenerateQuestions(questions []template.Question) []QuestionRow {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]QuestionRow, len(questions))
	for i, q := range questions {
		var opts []string
		if len(q.Options) > 0 {
			opts = append([]string(nil), q.Options...)
		}
		rows[i] = QuestionRow{
			Type:       q.Type,
			Prompt:     q.Prompt,
			Options:    opts,
			Required:   q.Required,
			OrderIndex: i,
		}
	}
	return rows
}

// GenerateCheckpoints anchors each checkpoint OffsetDays calendar days from
// eventStart, keeping eventStart's time of day.
func GenerateCheckpoints(checkpoints []template.Checkpoint, eventStart time.Time) []CheckpointRow {
	if len(checkpoints) == 0 {
		return nil
	}
	rows := make([]CheckpointRow, len(checkpoints))
	for i, c := range checkpoints {
		rows[i] = CheckpointRow{
			TriggerAt:     eventStart.AddDate(0, 0, c.OffsetDays),
			Type:          c.Type,
			Message:       c.Name,
			AutoResolveTo: c.AutoResolveTo,
		}
	}
	return rows
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
