package interaction

import (
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory keeps interactions for the lifetime of the process.
type Memory struct {
	opts *Options

	mu    sync.Mutex
	items []*Interaction
	index map[string]int
}

// NewMemory returns an empty in-memory store. opts may be nil.
func NewMemory(opts *Options) *Memory {
	return &Memory{
		opts:  opts,
		index: make(map[string]int),
	}
}

func (m *Memory) Allocate(_ context.Context, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.opts.newID()
	m.index[id] = len(m.items)
	m.items = append(m.items, &Interaction{
		ID:        id,
		Text:      text,
		IsLoading: true,
		Timestamp: m.opts.now(),
	})
	return id, nil
}

func (m *Memory) Merge(_ context.Context, id string, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return ErrNotFound
	}
	p.Apply(m.items[i])
	return nil
}

func (m *Memory) List(_ context.Context) ([]*Interaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Interaction, 0, len(m.items))
	for i := len(m.items) - 1; i >= 0; i-- {
		out = append(out, m.items[i].Clone())
	}
	return out, nil
}
