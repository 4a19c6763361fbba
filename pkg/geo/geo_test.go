package geo

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = "POLYGON((4.70 52.00, 4.72 52.00, 4.72 52.02, 4.70 52.02, 4.70 52.00))"

func TestParseWKT(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "polygon", in: square, want: "Polygon"},
		{name: "crs prefix", in: "<http://www.opengis.net/def/crs/OGC/1.3/CRS84> " + square, want: "Polygon"},
		{name: "point", in: "POINT(4.71 52.01)", want: "Point"},
		{name: "multipolygon", in: "MULTIPOLYGON(((4.70 52.00, 4.72 52.00, 4.72 52.02, 4.70 52.00)))", want: "MultiPolygon"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := ParseWKT(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, g.GeoJSONType())
		})
	}
}

func TestParseWKT_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "NOT A GEOMETRY", "POLYGON((4.70 52.00,", "<http://example.org/crs>"} {
		_, err := ParseWKT(in)
		assert.ErrorIs(t, err, ErrInvalidWKT, "input %q", in)
	}
}

func TestNewView(t *testing.T) {
	v, err := NewView(square, "OAT")
	require.NoError(t, err)

	assert.Equal(t, HisGIS, v.Provider)
	assert.Equal(t, [2][2]float64{{52.00, 4.70}, {52.02, 4.72}}, v.Bounds)
	assert.Equal(t, ParcelStyle, v.Style)
	assert.Equal(t, FitMaxZoom, v.FitMaxZoom)

	_, ok := v.Feature.Geometry.(orb.Polygon)
	assert.True(t, ok)

	raw, err := json.Marshal(v.Feature)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"Feature"`)
	assert.Contains(t, string(raw), `"type":"Polygon"`)
}

func TestProviderFor(t *testing.T) {
	assert.Equal(t, HisGIS, ProviderFor("OAT"))
	assert.Equal(t, BRK, ProviderFor("BRK"))
	assert.Equal(t, BRK, ProviderFor(""))
	assert.Equal(t, BRK, ProviderFor("oat"))
}

func TestProviderByName(t *testing.T) {
	assert.Equal(t, HisGIS, ProviderByName("hisgis"))
	assert.Equal(t, BRK, ProviderByName("brk"))
	assert.Equal(t, HisGIS, ProviderByName("OAT"))
	assert.Equal(t, BRK, ProviderByName("unknown"))
}

func TestProviderHasGeo(t *testing.T) {
	assert.Equal(t, HasGeoHistorical, HisGIS.HasGeo())
	assert.Equal(t, "", BRK.HasGeo())
	for _, name := range []string{"hisgis", "brk", "OAT", ""} {
		p := ProviderByName(name)
		assert.Equal(t, p, ProviderFor(p.HasGeo()), name)
	}
}
