// Package pipeline sequences the checks that guard a mutation. Stages always
// run in the fixed order below, whatever order they were added in, and the
// first failing stage aborts the rest, so nothing is persisted after a
// rejected check.
package pipeline

import (
	"context"
	"fmt"
	"sort"
)

type Stage int

const (
	Required Stage = iota + 1
	Resolve
	Rules
	Duplicates
	Derive
	Persist
)

func (s Stage) String() string {
	switch s {
	case Required:
		return "required"
	case Resolve:
		return "resolve"
	case Rules:
		return "rules"
	case Duplicates:
		return "duplicates"
	case Derive:
		return "derive"
	case Persist:
		return "persist"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Error wraps the failure of a single stage.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type step struct {
	stage Stage
	fn    func(ctx context.Context) error
}

type Pipeline struct {
	steps []step
}

func New() *Pipeline {
	return &Pipeline{}
}

// Add registers fn under stage. Several steps may share a stage; they run in
// the order they were added.
func (p *Pipeline) Add(stage Stage, fn func(ctx context.Context) error) *Pipeline {
	p.steps = append(p.steps, step{stage: stage, fn: fn})
	return p
}

func (p *Pipeline) Run(ctx context.Context) error {
	steps := make([]step, len(p.steps))
	copy(steps, p.steps)

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].stage < steps[j].stage
	})

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.fn(ctx); err != nil {
			return &Error{Stage: s.stage, Err: err}
		}
	}

	return nil
}
