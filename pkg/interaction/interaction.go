// Package interaction records the user's turns and the assistant's answers.
//
// An Interaction is allocated as soon as a user utterance is accepted and
// finalized by a single Merge once the dialogue has completed or failed.
// Stores are append-only; List returns the newest entry first.
package interaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Merge for an unknown ID.
var ErrNotFound = errors.New("interaction: not found")

// ToolCall records one external operation the dialogue performed.
type ToolCall struct {
	Name   string         `json:"name" yaml:"name" msgpack:"name"`
	Args   map[string]any `json:"args" yaml:"args" msgpack:"args"`
	Result any            `json:"result" yaml:"result" msgpack:"result"`
}

// Interaction is one user turn.
type Interaction struct {
	ID        string     `json:"id" yaml:"id" msgpack:"id"`
	Text      string     `json:"text" yaml:"text" msgpack:"text"`
	Response  string     `json:"response,omitempty" yaml:"response,omitempty" msgpack:"response,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty" yaml:"toolCalls,omitempty" msgpack:"tool_calls,omitempty"`
	IsLoading bool       `json:"isLoading" yaml:"isLoading" msgpack:"is_loading"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp" msgpack:"ts"`
}

// Clone returns a copy that shares no slices with i.
func (i *Interaction) Clone() *Interaction {
	c := *i
	if i.ToolCalls != nil {
		c.ToolCalls = append([]ToolCall(nil), i.ToolCalls...)
	}
	return &c
}

// Patch is the final update of an interaction. Nil fields are left as they
// are; applying any patch clears the loading flag.
type Patch struct {
	Response  *string
	ToolCalls []ToolCall
}

// Apply merges p into i.
func (p Patch) Apply(i *Interaction) {
	if p.Response != nil {
		i.Response = *p.Response
	}
	if p.ToolCalls != nil {
		i.ToolCalls = append([]ToolCall(nil), p.ToolCalls...)
	}
	i.IsLoading = false
}

// Store publishes interactions.
type Store interface {
	// Allocate creates a loading interaction holding text and returns its ID.
	Allocate(ctx context.Context, text string) (string, error)

	// Merge applies p to the interaction with the given ID.
	Merge(ctx context.Context, id string, p Patch) error

	// List returns all interactions, newest first.
	List(ctx context.Context) ([]*Interaction, error)
}

// Options are shared by the store implementations.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time

	// NewID defaults to a random UUID.
	NewID func() string
}

func (o *Options) now() time.Time {
	if o != nil && o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Options) newID() string {
	if o != nil && o.NewID != nil {
		return o.NewID()
	}
	return uuid.NewString()
}
