package generator

import (
	"errors"
	"time"

	"github.com/arosenfeld2003/lockstep/internal/template"
)

// Overrides carries the user's replacements for template defaults.
type Overrides struct {
	Blocks      Source[template.Block]
	Questions   Source[template.Question]
	Checkpoints Source[template.Checkpoint]
}

// Plan is every derived row for one event.
type Plan struct {
	Blocks      []BlockRow
	Questions   []QuestionRow
	Checkpoints []CheckpointRow
}

// Expand resolves overrides against t and generates all rows.
func Expand(t *template.EventTemplate, o Overrides, start, end time.Time) (Plan, error) {
	if t == nil {
		return Plan{}, errors.New("template is required")
	}
	blocks, err := GenerateBlocks(o.Blocks.Resolve(t.Blocks), start, end)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Blocks:      blocks,
		Questions:   GenerateQuestions(o.Questions.Resolve(t.Questions)),
		Checkpoints: GenerateCheckpoints(o.Checkpoints.Resolve(t.Checkpoints), start),
	}, nil
}
