package explorer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/goudatijdmachine/filiatie/pkg/common"
	"github.com/goudatijdmachine/filiatie/pkg/geo"
	"github.com/goudatijdmachine/filiatie/pkg/logger"
)

type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateRendered State = "rendered"
	StateEmpty    State = "empty"
	StateError    State = "error"
)

var ErrBusy = errors.New("a graph is already loading")

// Presenter is the display a Session drives. A Session never calls a
// Presenter from two goroutines at once.
type Presenter interface {
	SetTriggerEnabled(enabled bool)
	SetLoading(loading bool)
	ClearGraph()
	RenderGraph(nodes []common.ClassifiedNode, links []common.Link)
	ShowInfo(message string)
	ShowError(message string)
	SetFragment(fragment string)
	ShowTree(relation common.Relation, root *common.TreeNode)
	HideTree(relation common.Relation)
	OpenMap(view *geo.View) (MapLayer, error)
}

// Session runs visualization cycles against one Presenter.
type Session struct {
	explorer  *Explorer
	presenter Presenter

	presentMu sync.Mutex

	stateMu sync.Mutex
	state   State
	start   common.ParcelURI

	overlay Overlay
	geoSeq  atomic.Uint64
}

func NewSession(explorer *Explorer, presenter Presenter) *Session {
	return &Session{
		explorer:  explorer,
		presenter: presenter,
		state:     StateIdle,
	}
}

func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

// Start returns the parcel of the current or last cycle.
func (s *Session) Start() common.ParcelURI {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.start
}

func (s *Session) Overlay() *Overlay {
	return &s.overlay
}

func (s *Session) present(fn func(p Presenter)) {
	s.presentMu.Lock()
	defer s.presentMu.Unlock()
	fn(s.presenter)
}

// Load runs one full cycle for in: resolve the parcel, load and render its
// lineage graph, then build both lineage trees. The trees are built
// whatever the graph outcome. Load returns once the trees have settled.
//
// Invalid input is reported to the Presenter without starting a cycle.
func (s *Session) Load(ctx context.Context, in Input) error {
	start, err := ResolveInput(in)
	if err != nil {
		s.present(func(p Presenter) { p.ShowError(ErrorMessage(err)) })
		return err
	}

	s.stateMu.Lock()
	if s.state == StateLoading {
		s.stateMu.Unlock()
		return ErrBusy
	}
	s.state = StateLoading
	s.start = start
	s.stateMu.Unlock()

	s.present(func(p Presenter) {
		p.SetFragment(Fragment(start))
		p.SetTriggerEnabled(false)
		p.ClearGraph()
		p.SetLoading(true)
	})

	view, err := s.explorer.LoadGraph(ctx, start)
	if err != nil {
		logger.Error("[Explorer] Failed to load graph", "uri", start, "err", err)
	}

	s.present(func(p Presenter) {
		p.SetLoading(false)
		switch view.State {
		case StateEmpty:
			p.ShowInfo(view.Message)
		case StateError:
			p.ShowError(view.Message)
		case StateRendered:
			if view.Note != "" {
				p.ShowInfo(view.Note)
			}
			p.RenderGraph(view.Nodes, view.Links)
		}
		p.SetTriggerEnabled(true)
	})

	s.stateMu.Lock()
	s.state = view.State
	s.stateMu.Unlock()

	s.explorer.ForEachTree(ctx, start, func(rel common.Relation, panel TreePanel) {
		s.present(func(p Presenter) {
			if panel.Visible {
				p.ShowTree(rel, panel.Root)
			} else {
				p.HideTree(rel)
			}
		})
	})

	return err
}

// ShowGeometry opens the map for a clicked node. Only the most recently
// requested geometry is ever shown: a response that arrives after a newer
// request was issued is dropped. Failures are logged and leave the current
// map untouched. It reports whether the map was replaced.
func (s *Session) ShowGeometry(ctx context.Context, nodeID, hasGeo string) (bool, error) {
	seq := s.geoSeq.Add(1)

	view, err := s.explorer.FetchGeometry(ctx, nodeID, hasGeo)
	if err != nil {
		logger.Error("[Explorer] Failed to load map", "id", nodeID, "err", err)
		return false, err
	}

	var (
		applied bool
		openErr error
	)
	s.present(func(p Presenter) {
		if seq != s.geoSeq.Load() {
			logger.Debug("[Explorer] Dropping stale geometry", "id", nodeID, "seq", seq)
			return
		}
		layer, err := p.OpenMap(view)
		if err != nil {
			openErr = err
			return
		}
		if err := s.overlay.Replace(layer, view); err != nil {
			logger.Warn("[Explorer] Previous map was not closed cleanly", "id", nodeID, "err", err)
		}
		applied = true
	})
	if openErr != nil {
		logger.Error("[Explorer] Failed to open map", "id", nodeID, "err", openErr)
		return false, openErr
	}
	return applied, nil
}

// Close disposes the active map and returns the session to idle.
func (s *Session) Close() error {
	s.stateMu.Lock()
	s.state = StateIdle
	s.stateMu.Unlock()
	return s.overlay.Close()
}
