// Package explorer ties SPARQL round trips to parsing, classification and
// tree building, and drives a Presenter through one visualization cycle.
package explorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/goudatijdmachine/filiatie/pkg/common"
	"github.com/goudatijdmachine/filiatie/pkg/graph"
	"github.com/goudatijdmachine/filiatie/pkg/logger"
	"github.com/goudatijdmachine/filiatie/pkg/query"
	"github.com/goudatijdmachine/filiatie/pkg/sparql"
)

const (
	DefaultLineageEndpoint  = "https://qlever.coret.org/hackalod-filiatie"
	DefaultGeometryEndpoint = "https://sparql.goudatijdmachine.nl"
)

const (
	MsgNoData        = "No data found for this perceel ID. It may not exist in the database or has no connections."
	MsgCannotConnect = "Cannot connect to SPARQL endpoint. Please check your internet connection."
	msgNoConnections = "This perceel (%s) has no connections to other parcels."
)

type Endpoints struct {
	// Lineage serves the lineage graph and relation queries.
	Lineage string
	// Geometry serves parcel geometries.
	Geometry string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{Lineage: DefaultLineageEndpoint, Geometry: DefaultGeometryEndpoint}
}

// Explorer performs the stateless part of a visualization cycle. It is
// safe for concurrent use.
type Explorer struct {
	exec      sparql.Executor
	endpoints Endpoints
}

func New(exec sparql.Executor, endpoints Endpoints) *Explorer {
	if endpoints.Lineage == "" {
		endpoints.Lineage = DefaultLineageEndpoint
	}
	if endpoints.Geometry == "" {
		endpoints.Geometry = DefaultGeometryEndpoint
	}
	return &Explorer{exec: exec, endpoints: endpoints}
}

func (e *Explorer) Endpoints() Endpoints {
	return e.endpoints
}

// GraphView is the outcome of loading the lineage graph of one parcel.
type GraphView struct {
	State    State                   `json:"state"`
	URI      common.ParcelURI        `json:"uri"`
	Fragment string                  `json:"fragment"`
	Message  string                  `json:"message,omitempty"`
	Note     string                  `json:"note,omitempty"`
	Nodes    []common.ClassifiedNode `json:"nodes"`
	Links    []common.Link           `json:"links"`
}

// FetchGraph runs the lineage query for start and parses the response.
func (e *Explorer) FetchGraph(ctx context.Context, start common.ParcelURI) (common.Graph, error) {
	body, err := e.exec.Execute(ctx, sparql.Request{
		Query:    query.LineageGraph(start),
		Endpoint: e.endpoints.Lineage,
		Accept:   sparql.AcceptNTriples,
	})
	if err != nil {
		return common.Graph{}, fmt.Errorf("failed to fetch lineage graph: %w", err)
	}
	return graph.ParseNTriples(body), nil
}

// LoadGraph fetches, parses and classifies the lineage graph of start.
//
// Zero nodes yields StateEmpty. A single isolated node is still rendered
// with an informational note. On failure the returned view carries
// StateError and a user-facing message alongside the error.
func (e *Explorer) LoadGraph(ctx context.Context, start common.ParcelURI) (*GraphView, error) {
	view := &GraphView{
		URI:      start,
		Fragment: Fragment(start),
		Nodes:    []common.ClassifiedNode{},
		Links:    []common.Link{},
	}

	g, err := e.FetchGraph(ctx, start)
	if err != nil {
		view.State = StateError
		view.Message = ErrorMessage(err)
		return view, err
	}

	if len(g.Nodes) == 0 {
		view.State = StateEmpty
		view.Message = MsgNoData
		return view, nil
	}

	view.State = StateRendered
	if len(g.Nodes) == 1 && len(g.Links) == 0 {
		view.Note = fmt.Sprintf(msgNoConnections, g.Nodes[0].Label)
	}
	view.Nodes = graph.Classify(g.Nodes, g.Links, start)
	view.Links = g.Links

	logger.Debug("[Explorer] Graph loaded", "uri", start, "nodes", len(g.Nodes), "links", len(g.Links))
	return view, nil
}

// ErrorMessage maps err onto the message shown to the user. Connectivity
// failures get a fixed message, server failures are shown verbatim.
func ErrorMessage(err error) string {
	if sparql.IsNetworkError(err) {
		return MsgCannotConnect
	}
	var httpErr *sparql.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	return err.Error()
}
