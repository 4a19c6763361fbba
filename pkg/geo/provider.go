package geo

// HasGeoHistorical marks parcels digitized from the original cadastral
// survey. Those are shown on the HisGIS tiles; everything else is shown on
// the current cadastral map.
const HasGeoHistorical = "OAT"

type ProviderKind string

const (
	ProviderKindTiles ProviderKind = "tiles"
	ProviderKindWMS   ProviderKind = "wms"
)

// Provider describes a base map layer.
type Provider struct {
	Name        string       `json:"name"`
	Kind        ProviderKind `json:"kind"`
	URL         string       `json:"url"`
	Layers      string       `json:"layers,omitempty"`
	Format      string       `json:"format,omitempty"`
	Version     string       `json:"version,omitempty"`
	Transparent bool         `json:"transparent,omitempty"`
	MinZoom     int          `json:"minZoom,omitempty"`
	MaxZoom     int          `json:"maxZoom"`
	Attribution string       `json:"attribution"`
}

var (
	HisGIS = Provider{
		Name:        "hisgis",
		Kind:        ProviderKindTiles,
		URL:         "https://tileserver.huc.knaw.nl/{z}/{x}/{y}",
		MinZoom:     10,
		MaxZoom:     21,
		Attribution: "KNAW/HUC",
	}
	BRK = Provider{
		Name:        "brk",
		Kind:        ProviderKindWMS,
		URL:         "https://service.pdok.nl/kadaster/cp/wms/v1_0?",
		Layers:      "CP.CadastralParcel",
		Format:      "image/png",
		Version:     "1.3.0",
		Transparent: true,
		MaxZoom:     24,
		Attribution: "<a href='https://www.pdok.nl/'>PDOK</a>",
	}
)

// DefaultCenter is [lat, lon] of Gouda, used before a parcel is fitted.
var DefaultCenter = [2]float64{52.01, 4.71}

const DefaultZoom = 13

// ProviderFor selects the base map for a hasGeo discriminator.
func ProviderFor(hasGeo string) Provider {
	if hasGeo == HasGeoHistorical {
		return HisGIS
	}
	return BRK
}

// ProviderByName resolves a provider name as used in API requests.
// Unknown names fall back to hasGeo semantics so "OAT" and "" keep working.
func ProviderByName(name string) Provider {
	switch name {
	case HisGIS.Name:
		return HisGIS
	case BRK.Name:
		return BRK
	default:
		return ProviderFor(name)
	}
}

// HasGeo is the hasGeo discriminator that selects p.
func (p Provider) HasGeo() string {
	if p.Name == HisGIS.Name {
		return HasGeoHistorical
	}
	return ""
}
