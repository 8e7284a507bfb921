// Package llmtest provides a scripted Model implementation for exercising
// model-driven code paths without a live endpoint.
package llmtest

import (
	"context"
	"sync"

	"github.com/confidant-ai/confidant/internal/llm"
)

// Step is one scripted round-trip outcome.
type Step struct {
	Response *llm.Response
	Err      error
}

// Scripted replays a fixed sequence of responses and records every request it
// received. When the script runs out it keeps returning the final step.
type Scripted struct {
	mu       sync.Mutex
	steps    []Step
	Requests []llm.Request
}

func NewScripted(steps ...Step) *Scripted { return &Scripted{steps: steps} }

// Respond is a convenience for a content-only success step.
func Respond(content string) Step {
	return Step{Response: &llm.Response{Content: content}}
}

// RespondToolCalls is a convenience for a tool-call success step.
func RespondToolCalls(calls ...llm.ToolCall) Step {
	return Step{Response: &llm.Response{ToolCalls: calls}}
}

// Fail is a convenience for an error step.
func Fail(err error) Step { return Step{Err: err} }

func (s *Scripted) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	i := len(s.Requests) - 1
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	if i < 0 {
		return &llm.Response{}, nil
	}
	step := s.steps[i]
	if step.Err != nil {
		return nil, step.Err
	}
	cp := *step.Response
	return &cp, nil
}

// Calls returns how many round-trips were made.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
