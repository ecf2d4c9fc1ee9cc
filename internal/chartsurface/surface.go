// Package chartsurface draws inferred charts and keeps track of every live
// chart instance so they can be exported or torn down together.
package chartsurface

import (
	"errors"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

// Handle identifies a rendered chart. The zero Handle means "no chart".
type Handle uint64

// NoHandle is returned alongside errors.
const NoHandle Handle = 0

// Target describes where a chart is drawn: a block of terminal cells.
type Target struct {
	Width  int
	Height int
	Style  lipgloss.Style // bar and line colour
}

// Surface is the only thing outside this package that knows about charts.
type Surface interface {
	Render(spec model.ChartSpec, target Target) (Handle, error)
	View(h Handle) (string, error)
	ToImage(h Handle) ([]byte, error)
	Destroy(h Handle) error
	DestroyAll()
	Len() int
}

var errNothingToDraw = errors.New("nothing to draw")

type instance struct {
	spec model.ChartSpec
	view string
}

// registry maps handles to chart instances.
type registry struct {
	mu    sync.Mutex
	next  Handle
	items map[Handle]*instance
}

func newRegistry() *registry {
	return &registry{items: make(map[Handle]*instance)}
}

func (r *registry) add(inst *instance) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.items[r.next] = inst
	return r.next
}

func (r *registry) get(h Handle) (*instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.items[h]
	if !ok {
		return nil, model.ErrUnknownHandle
	}
	return inst, nil
}

func (r *registry) remove(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[h]; !ok {
		return model.ErrUnknownHandle
	}
	delete(r.items, h)
	return nil
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.items)
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
