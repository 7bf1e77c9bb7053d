package query

import (
	"sync"

	"github.com/graphboard/graphboard/types"
)

// Listener is called with the new parameters after every change.
type Listener func(types.QueryParameters)

// Parameters is a mutable, observable set of query parameters. Every setter
// that actually changes a value publishes the new state to all listeners, in
// the order the changes were made. Setting a value to what it already is does
// not publish.
type Parameters struct {
	mu      sync.Mutex
	current types.QueryParameters

	// publishMu keeps notifications in mutation order when several goroutines
	// write concurrently.
	publishMu sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64
}

func NewParameters(initial types.QueryParameters) *Parameters {
	return &Parameters{
		current:   initial.Clone(),
		listeners: make(map[uint64]Listener),
	}
}

// Get returns a copy of the current parameters.
func (p *Parameters) Get() types.QueryParameters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

// Subscribe registers l and returns the function that removes it.
func (p *Parameters) Subscribe(l Listener) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Update applies fn to a copy of the parameters and publishes the result if
// anything changed. It reports whether a change was published.
func (p *Parameters) Update(fn func(*types.QueryParameters)) bool {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	p.mu.Lock()
	next := p.current.Clone()
	fn(&next)
	if next.Equal(p.current) {
		p.mu.Unlock()
		return false
	}
	p.current = next
	listeners := make([]Listener, 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()

	for _, l := range listeners {
		l(next.Clone())
	}
	return true
}

// Set replaces all parameters at once.
func (p *Parameters) Set(params types.QueryParameters) bool {
	return p.Update(func(q *types.QueryParameters) {
		*q = params.Clone()
	})
}

// SetPage replaces the pagination with the given page, keeping the page size.
func (p *Parameters) SetPage(page int) bool {
	return p.Update(func(q *types.QueryParameters) {
		q.Pagination = types.Pagination{
			Page:         &page,
			ItemsPerPage: q.Pagination.ItemsPerPage,
		}
	})
}

// SetItemsPerPage replaces the pagination with the given page size, keeping the
// page. The page is not clamped to the new last page.
func (p *Parameters) SetItemsPerPage(itemsPerPage int) bool {
	return p.Update(func(q *types.QueryParameters) {
		q.Pagination = types.Pagination{
			Page:         q.Pagination.Page,
			ItemsPerPage: &itemsPerPage,
		}
	})
}

func (p *Parameters) SetOrder(field types.OrderField, direction types.OrderDirection) bool {
	return p.Update(func(q *types.QueryParameters) {
		q.Order = types.Order{Field: &field, Direction: &direction}
	})
}

// SetTaskIdentifierFilter filters on task identifier. nil removes the filter.
func (p *Parameters) SetTaskIdentifierFilter(taskIdentifier *string) bool {
	return p.Update(func(q *types.QueryParameters) {
		if taskIdentifier == nil {
			q.Filters.TaskIdentifier = nil
			return
		}
		value := *taskIdentifier
		q.Filters.TaskIdentifier = &value
	})
}
