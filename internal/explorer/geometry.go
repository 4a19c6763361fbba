package explorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/goudatijdmachine/filiatie/pkg/geo"
	"github.com/goudatijdmachine/filiatie/pkg/query"
	"github.com/goudatijdmachine/filiatie/pkg/sparql"
)

var ErrNoGeometry = errors.New("no geometry found")

// FetchGeometry loads the geometry of the parcel with the given identifier
// and places it on the base map selected by hasGeo.
func (e *Explorer) FetchGeometry(ctx context.Context, id, hasGeo string) (*geo.View, error) {
	body, err := e.exec.Execute(ctx, sparql.Request{
		Query:    query.GeometryByIdentifier(id),
		Endpoint: e.endpoints.Geometry,
		Accept:   sparql.AcceptResultsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch geometry: %w", err)
	}

	res, err := sparql.DecodeResults(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode geometry: %w", err)
	}

	wkt, ok := res.First("wkt")
	if !ok {
		return nil, fmt.Errorf("%w for perceel %s", ErrNoGeometry, id)
	}

	view, err := geo.NewView(wkt, hasGeo)
	if err != nil {
		return nil, fmt.Errorf("failed to convert geometry of %s: %w", id, err)
	}
	return view, nil
}
