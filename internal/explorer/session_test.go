package explorer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/goudatijdmachine/filiatie/pkg/common"
	"github.com/goudatijdmachine/filiatie/pkg/geo"
	"github.com/goudatijdmachine/filiatie/pkg/sparql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	startURI = "https://www.goudatijdmachine.nl/id/perceel/GDA01/N1452"
	otherURI = "https://www.goudatijdmachine.nl/id/perceel/GDA01/N1453"

	emptyResults = `{"head":{"vars":["bron","doel"]},"results":{"bindings":[]}}`
)

type route string

const (
	routeLineage         route = "lineage"
	routeOpgegaanIn      route = "opgegaanIn"
	routeVoortgekomenUit route = "voortgekomenUit"
	routeGeometry        route = "geometry"
)

func routeOf(req sparql.Request) route {
	switch {
	case strings.Contains(req.Query, "CONSTRUCT"):
		return routeLineage
	case strings.Contains(req.Query, "gtm:opgegaanIn*"):
		return routeOpgegaanIn
	case strings.Contains(req.Query, "gtm:voortgekomenUit*"):
		return routeVoortgekomenUit
	case strings.Contains(req.Query, "asWKT"):
		return routeGeometry
	}
	return ""
}

type reply struct {
	body string
	err  error
}

type fakeExecutor struct {
	mu       sync.Mutex
	replies  map[route]reply
	requests []sparql.Request
	hook     func(req sparql.Request) (string, bool, error)
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{replies: map[route]reply{
		routeLineage:         {body: ""},
		routeOpgegaanIn:      {body: emptyResults},
		routeVoortgekomenUit: {body: emptyResults},
	}}
}

func (f *fakeExecutor) Execute(ctx context.Context, req sparql.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	r, ok := f.replies[routeOf(req)]
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		if body, handled, err := hook(req); handled {
			return body, err
		}
	}
	if !ok {
		return "", fmt.Errorf("unexpected request: %s", req.Query)
	}
	return r.body, r.err
}

func (f *fakeExecutor) set(r route, body string, err error) {
	f.mu.Lock()
	f.replies[r] = reply{body: body, err: err}
	f.mu.Unlock()
}

func (f *fakeExecutor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeLayer struct {
	view   *geo.View
	closed bool
	err    error
}

func (l *fakeLayer) Close() error {
	l.closed = true
	return l.err
}

type recordingPresenter struct {
	events   []string
	rendered []common.ClassifiedNode
	links    []common.Link
	trees    map[common.Relation]*common.TreeNode
	hidden   map[common.Relation]bool
	layers   []*fakeLayer
	trigger  bool
	loading  bool
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{
		trigger: true,
		trees:   make(map[common.Relation]*common.TreeNode),
		hidden:  make(map[common.Relation]bool),
	}
}

func (p *recordingPresenter) SetTriggerEnabled(enabled bool) {
	p.trigger = enabled
	p.events = append(p.events, fmt.Sprintf("trigger:%t", enabled))
}

func (p *recordingPresenter) SetLoading(loading bool) {
	p.loading = loading
	p.events = append(p.events, fmt.Sprintf("loading:%t", loading))
}

func (p *recordingPresenter) ClearGraph() {
	p.events = append(p.events, "clear")
}

func (p *recordingPresenter) RenderGraph(nodes []common.ClassifiedNode, links []common.Link) {
	p.rendered, p.links = nodes, links
	p.events = append(p.events, "render")
}

func (p *recordingPresenter) ShowInfo(message string) {
	p.events = append(p.events, "info:"+message)
}

func (p *recordingPresenter) ShowError(message string) {
	p.events = append(p.events, "error:"+message)
}

func (p *recordingPresenter) SetFragment(fragment string) {
	p.events = append(p.events, "fragment:"+fragment)
}

func (p *recordingPresenter) ShowTree(relation common.Relation, root *common.TreeNode) {
	p.trees[relation] = root
}

func (p *recordingPresenter) HideTree(relation common.Relation) {
	p.hidden[relation] = true
}

func (p *recordingPresenter) OpenMap(view *geo.View) (MapLayer, error) {
	l := &fakeLayer{view: view}
	p.layers = append(p.layers, l)
	return l, nil
}

func (p *recordingPresenter) has(event string) bool {
	for _, e := range p.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestSession(exec sparql.Executor) (*Session, *recordingPresenter) {
	p := newRecordingPresenter()
	return NewSession(New(exec, Endpoints{Lineage: "http://lineage", Geometry: "http://geometry"}), p), p
}

func TestSessionLoad_Empty(t *testing.T) {
	exec := newFakeExecutor()
	s, p := newTestSession(exec)

	err := s.Load(context.Background(), Input{URI: startURI})

	require.NoError(t, err)
	assert.Equal(t, StateEmpty, s.State())
	assert.True(t, p.has("info:"+MsgNoData))
	assert.False(t, p.has("render"))
	assert.False(t, p.loading, "loading indicator cleared")
	assert.True(t, p.trigger, "trigger re-enabled")
	assert.True(t, p.hidden[common.RelationOpgegaanIn])
	assert.True(t, p.hidden[common.RelationVoortgekomenUit])
	assert.Equal(t, 3, exec.count())
}

func TestSessionLoad_SingleNode(t *testing.T) {
	exec := newFakeExecutor()
	exec.set(routeLineage,
		"<"+startURI+"> <https://www.goudatijdmachine.nl/def#hasGeo> \"OAT\" .\n", nil)
	s, p := newTestSession(exec)

	err := s.Load(context.Background(), Input{URI: startURI})

	require.NoError(t, err)
	assert.Equal(t, StateRendered, s.State())
	assert.True(t, p.has("info:This perceel (GDA01/N1452) has no connections to other parcels."))
	assert.True(t, p.has("render"))
	require.Len(t, p.rendered, 1)
	assert.Equal(t, common.NodeTypeStart, p.rendered[0].Type)
	assert.Equal(t, "OAT", p.rendered[0].HasGeo)
	assert.Empty(t, p.links)
	assert.True(t, p.trigger)
	assert.False(t, p.loading)
}

func TestSessionLoad_Rendered(t *testing.T) {
	exec := newFakeExecutor()
	exec.set(routeLineage,
		"<"+startURI+"> <https://www.goudatijdmachine.nl/def#opgegaanIn> <"+otherURI+"> .\n", nil)
	exec.set(routeOpgegaanIn, `{"results":{"bindings":[
		{"bron":{"type":"uri","value":"`+startURI+`"},"doel":{"type":"uri","value":"`+otherURI+`"}}
	]}}`, nil)
	s, p := newTestSession(exec)

	require.NoError(t, s.Load(context.Background(), Input{Gemeente: "GDA01", Perceel: "N1452"}))

	assert.Equal(t, StateRendered, s.State())
	assert.Equal(t, common.ParcelURI(startURI), s.Start())
	require.Len(t, p.rendered, 2)
	assert.Equal(t, common.NodeTypeStart, p.rendered[0].Type)
	assert.Equal(t, common.NodeTypeNext, p.rendered[1].Type)
	assert.True(t, p.has("fragment:"+Fragment(startURI)))

	root := p.trees[common.RelationOpgegaanIn]
	require.NotNil(t, root)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "GDA01-N1453", root.Children[0].Label)
	assert.True(t, p.hidden[common.RelationVoortgekomenUit])
}

func TestSessionLoad_LoadingSequence(t *testing.T) {
	exec := newFakeExecutor()
	s, p := newTestSession(exec)

	require.NoError(t, s.Load(context.Background(), Input{URI: startURI}))

	require.GreaterOrEqual(t, len(p.events), 4)
	assert.Equal(t, []string{"fragment:" + Fragment(startURI), "trigger:false", "clear", "loading:true"}, p.events[:4])
	assert.Equal(t, "trigger:true", p.events[len(p.events)-1])
}

func TestSessionLoad_NetworkError(t *testing.T) {
	exec := newFakeExecutor()
	exec.set(routeLineage, "", &sparql.NetworkError{Endpoint: "http://lineage", Err: errors.New("connection refused")})
	exec.set(routeVoortgekomenUit, `{"results":{"bindings":[
		{"bron":{"value":"`+startURI+`"},"doel":{"value":"`+otherURI+`"}}
	]}}`, nil)
	s, p := newTestSession(exec)

	err := s.Load(context.Background(), Input{URI: startURI})

	require.Error(t, err)
	assert.True(t, sparql.IsNetworkError(err))
	assert.Equal(t, StateError, s.State())
	assert.True(t, p.has("error:"+MsgCannotConnect))
	assert.True(t, p.trigger)
	assert.False(t, p.loading)
	assert.NotNil(t, p.trees[common.RelationVoortgekomenUit], "trees are built regardless of graph outcome")
}

func TestSessionLoad_HTTPError(t *testing.T) {
	exec := newFakeExecutor()
	httpErr := &sparql.HTTPError{StatusCode: 500, Status: "Internal Server Error", Body: "server error"}
	exec.set(routeLineage, "", httpErr)
	s, p := newTestSession(exec)

	err := s.Load(context.Background(), Input{URI: startURI})

	require.Error(t, err)
	assert.Equal(t, StateError, s.State())
	assert.True(t, p.has("error:SPARQL query failed: 500 Internal Server Error\nserver error"))
	assert.False(t, p.has("error:"+MsgCannotConnect))
}

func TestSessionLoad_TreeFailuresAreIndependent(t *testing.T) {
	exec := newFakeExecutor()
	exec.set(routeOpgegaanIn, "", &sparql.HTTPError{StatusCode: 503, Status: "Service Unavailable"})
	exec.set(routeVoortgekomenUit, `{"results":{"bindings":[
		{"bron":{"value":"`+startURI+`"},"doel":{"value":"`+otherURI+`"}}
	]}}`, nil)
	s, p := newTestSession(exec)

	require.NoError(t, s.Load(context.Background(), Input{URI: startURI}))

	assert.True(t, p.hidden[common.RelationOpgegaanIn])
	assert.NotNil(t, p.trees[common.RelationVoortgekomenUit])
	assert.False(t, p.hidden[common.RelationVoortgekomenUit])
}

func TestSessionLoad_MalformedTreeResults(t *testing.T) {
	exec := newFakeExecutor()
	exec.set(routeOpgegaanIn, "<html>", nil)
	s, p := newTestSession(exec)

	require.NoError(t, s.Load(context.Background(), Input{URI: startURI}))

	assert.True(t, p.hidden[common.RelationOpgegaanIn])
	assert.True(t, p.hidden[common.RelationVoortgekomenUit])
}

func TestSessionLoad_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want error
		msg  string
	}{
		{name: "missing", in: Input{}, want: ErrMissingInput, msg: "please enter a perceel ID"},
		{name: "not http", in: Input{URI: "urn:perceel:1"}, want: ErrInvalidURI, msg: ErrInvalidURI.Error()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := newFakeExecutor()
			s, p := newTestSession(exec)

			err := s.Load(context.Background(), tc.in)

			assert.ErrorIs(t, err, tc.want)
			assert.True(t, p.has("error:"+tc.msg))
			assert.Equal(t, StateIdle, s.State())
			assert.Zero(t, exec.count())
		})
	}
}

func TestSessionLoad_Busy(t *testing.T) {
	exec := newFakeExecutor()
	entered := make(chan struct{})
	release := make(chan struct{})
	exec.hook = func(req sparql.Request) (string, bool, error) {
		if routeOf(req) == routeLineage {
			close(entered)
			<-release
		}
		return "", false, nil
	}
	s, _ := newTestSession(exec)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), Input{URI: startURI}) }()

	<-entered
	assert.Equal(t, StateLoading, s.State())
	assert.ErrorIs(t, s.Load(context.Background(), Input{URI: startURI}), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateEmpty, s.State())
}

func geometryResults(wkt string) string {
	return `{"head":{"vars":["wkt"]},"results":{"bindings":[{"wkt":{"type":"literal","value":"` + wkt + `"}}]}}`
}

func TestSessionShowGeometry(t *testing.T) {
	exec := newFakeExecutor()
	exec.set(routeGeometry, geometryResults("POINT(4.71 52.01)"), nil)
	s, p := newTestSession(exec)

	applied, err := s.ShowGeometry(context.Background(), startURI, "OAT")

	require.NoError(t, err)
	assert.True(t, applied)
	require.Len(t, p.layers, 1)
	assert.Equal(t, geo.HisGIS, p.layers[0].view.Provider)
	assert.Same(t, p.layers[0].view, s.Overlay().View())

	applied, err = s.ShowGeometry(context.Background(), startURI, "")
	require.NoError(t, err)
	assert.True(t, applied)
	require.Len(t, p.layers, 2)
	assert.True(t, p.layers[0].closed, "previous map disposed")
	assert.Equal(t, geo.BRK, p.layers[1].view.Provider)

	require.NoError(t, s.Close())
	assert.True(t, p.layers[1].closed)
	assert.Nil(t, s.Overlay().View())
}

func TestSessionShowGeometry_FailuresLeaveOverlay(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want error
	}{
		{name: "no binding", body: `{"results":{"bindings":[]}}`, want: ErrNoGeometry},
		{name: "bad json", body: "nope", want: sparql.ErrMalformedResults},
		{name: "bad wkt", body: geometryResults("TRIANGLE(1 2)"), want: geo.ErrInvalidWKT},
		{name: "http", err: &sparql.HTTPError{StatusCode: 404, Status: "Not Found"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := newFakeExecutor()
			exec.set(routeGeometry, geometryResults("POINT(4.71 52.01)"), nil)
			s, p := newTestSession(exec)

			_, err := s.ShowGeometry(context.Background(), startURI, "OAT")
			require.NoError(t, err)
			before := s.Overlay().View()

			exec.set(routeGeometry, tc.body, tc.err)
			applied, err := s.ShowGeometry(context.Background(), otherURI, "OAT")

			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
			assert.False(t, applied)
			assert.Same(t, before, s.Overlay().View())
			assert.Len(t, p.layers, 1)
			assert.False(t, p.layers[0].closed)
		})
	}
}

func TestSessionShowGeometry_StaleResponseDropped(t *testing.T) {
	exec := newFakeExecutor()
	started := make(chan struct{})
	release := make(chan struct{})
	exec.hook = func(req sparql.Request) (string, bool, error) {
		if routeOf(req) != routeGeometry {
			return "", false, nil
		}
		if strings.Contains(req.Query, `"slow"`) {
			close(started)
			<-release
			return geometryResults("POINT(1 1)"), true, nil
		}
		return geometryResults("POINT(2 2)"), true, nil
	}
	s, p := newTestSession(exec)

	type result struct {
		applied bool
		err     error
	}
	slow := make(chan result, 1)
	go func() {
		applied, err := s.ShowGeometry(context.Background(), "slow", "")
		slow <- result{applied, err}
	}()
	<-started

	applied, err := s.ShowGeometry(context.Background(), "fast", "")
	require.NoError(t, err)
	assert.True(t, applied)

	close(release)
	r := <-slow
	require.NoError(t, r.err)
	assert.False(t, r.applied)

	require.Len(t, p.layers, 1)
	assert.Equal(t, [2][2]float64{{2, 2}, {2, 2}}, s.Overlay().View().Bounds)
}

func TestOverlayReplace(t *testing.T) {
	var o Overlay
	first := &fakeLayer{}
	second := &fakeLayer{err: errors.New("already gone")}
	third := &fakeLayer{}

	require.NoError(t, o.Replace(first, nil))
	require.NoError(t, o.Replace(second, nil))
	assert.True(t, first.closed)

	assert.Error(t, o.Replace(third, nil), "close error is reported")
	assert.True(t, second.closed)
	assert.False(t, third.closed)

	require.NoError(t, o.Close())
	assert.True(t, third.closed)
	require.NoError(t, o.Close(), "closing an empty overlay is a no-op")
}

func TestSessionShowGeometry_PreviousCloseFails(t *testing.T) {
	exec := newFakeExecutor()
	exec.set(routeGeometry, geometryResults("POINT(4.71 52.01)"), nil)
	s, p := newTestSession(exec)

	_, err := s.ShowGeometry(context.Background(), startURI, "OAT")
	require.NoError(t, err)
	require.Len(t, p.layers, 1)
	p.layers[0].err = errors.New("already gone")

	applied, err := s.ShowGeometry(context.Background(), startURI, "")
	require.NoError(t, err)
	assert.True(t, applied)
	require.Len(t, p.layers, 2)
	assert.Same(t, p.layers[1].view, s.Overlay().View(), "new map is installed anyway")
}

func TestTrees_SelectedRelations(t *testing.T) {
	exec := newFakeExecutor()
	exec.set(routeOpgegaanIn, "", &sparql.HTTPError{StatusCode: 500, Status: "Internal Server Error"})
	exp := New(exec, Endpoints{Lineage: "http://lineage", Geometry: "http://geometry"})

	trees := exp.Trees(context.Background(), startURI, common.RelationVoortgekomenUit)
	assert.Len(t, trees, 1)
	assert.Contains(t, trees, common.RelationVoortgekomenUit)
	assert.Equal(t, 1, exec.count(), "only the selected relation is queried")

	trees = exp.Trees(context.Background(), startURI)
	require.Len(t, trees, 2)
	assert.False(t, trees[common.RelationOpgegaanIn].Visible)
	assert.NotEmpty(t, trees[common.RelationOpgegaanIn].Error)
}
