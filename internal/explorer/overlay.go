package explorer

import (
	"sync"

	"github.com/goudatijdmachine/filiatie/pkg/geo"
)

// MapLayer is a map instance opened by a Presenter.
type MapLayer interface {
	Close() error
}

// Overlay owns the single active map. Opening a new map always goes
// through Replace so at most one map is alive at a time.
type Overlay struct {
	mu     sync.Mutex
	active MapLayer
	view   *geo.View
}

// Replace installs layer as the active map and disposes the previous one.
// The previous map is gone even when its Close fails.
func (o *Overlay) Replace(layer MapLayer, view *geo.View) error {
	o.mu.Lock()
	old := o.active
	o.active, o.view = layer, view
	o.mu.Unlock()

	if old == nil {
		return nil
	}
	return old.Close()
}

// View returns the geometry currently shown, or nil.
func (o *Overlay) View() *geo.View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// Close disposes the active map, if any.
func (o *Overlay) Close() error {
	return o.Replace(nil, nil)
}
