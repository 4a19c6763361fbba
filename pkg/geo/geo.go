// Package geo turns WKT parcel geometries into GeoJSON map views.
package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

var ErrInvalidWKT = errors.New("invalid WKT geometry")

// Style is the fill applied to the parcel outline.
type Style struct {
	Color       string  `json:"color"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

var ParcelStyle = Style{Color: "#d02828", FillColor: "#d02828", FillOpacity: 0.4}

// FitMaxZoom caps the zoom level when fitting the map to a parcel.
const FitMaxZoom = 19

// View is a parcel geometry ready to be placed on a base map.
type View struct {
	Provider Provider         `json:"provider"`
	Feature  *geojson.Feature `json:"feature"`
	// Bounds is [[south, west], [north, east]].
	Bounds     [2][2]float64 `json:"bounds"`
	Style      Style         `json:"style"`
	FitMaxZoom int           `json:"fitMaxZoom"`
}

// ParseWKT decodes a WKT literal. A leading CRS IRI as used by GeoSPARQL
// wktLiteral values is ignored.
func ParseWKT(text string) (orb.Geometry, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "<") {
		if end := strings.Index(s, ">"); end >= 0 {
			s = strings.TrimSpace(s[end+1:])
		}
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidWKT)
	}

	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWKT, err)
	}
	return g, nil
}

// NewView builds the map view for a parcel. hasGeo selects the base map.
func NewView(wktText, hasGeo string) (*View, error) {
	g, err := ParseWKT(wktText)
	if err != nil {
		return nil, err
	}

	b := g.Bound()
	return &View{
		Provider: ProviderFor(hasGeo),
		Feature:  geojson.NewFeature(g),
		Bounds: [2][2]float64{
			{b.Min.Lat(), b.Min.Lon()},
			{b.Max.Lat(), b.Max.Lon()},
		},
		Style:      ParcelStyle,
		FitMaxZoom: FitMaxZoom,
	}, nil
}
