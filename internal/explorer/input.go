package explorer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goudatijdmachine/filiatie/pkg/common"
)

// ParcelBaseURI prefixes a {gemeente}/{perceel} pair to form a parcel URI.
const ParcelBaseURI = "https://www.goudatijdmachine.nl/id/perceel/"

var (
	ErrMissingInput = errors.New("please enter a perceel ID")
	ErrInvalidURI   = errors.New("perceel ID must be a valid URI (starting with http:// or https://)")
)

// Input is what a user supplies to start a visualization: either a shared
// URL fragment or the cadastral municipality and parcel code.
type Input struct {
	Fragment string `json:"fragment" query:"fragment"`
	URI      string `json:"uri" query:"uri"`
	Gemeente string `json:"gemeente" query:"gemeente"`
	Perceel  string `json:"perceel" query:"perceel"`
}

// ResolveInput picks the parcel URI to load. A non-empty fragment wins,
// then an explicit URI, then the composed gemeente/perceel URI.
func ResolveInput(in Input) (common.ParcelURI, error) {
	var raw string
	switch {
	case strings.TrimPrefix(in.Fragment, "#") != "":
		decoded, err := ParseFragment(in.Fragment)
		if err != nil {
			return "", err
		}
		raw = decoded
	case in.URI != "":
		raw = in.URI
	case in.Gemeente != "" || in.Perceel != "":
		raw = ParcelBaseURI + in.Gemeente + "/" + in.Perceel
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingInput
	}
	uri := common.ParcelURI(raw)
	if err := ValidateURI(uri); err != nil {
		return "", err
	}
	return uri, nil
}

// ValidateURI checks that uri can be placed between angle brackets in a
// query.
func ValidateURI(uri common.ParcelURI) error {
	if !strings.HasPrefix(string(uri), "http") {
		return ErrInvalidURI
	}
	if strings.ContainsAny(string(uri), "<>\"{}|^`\\ \t\r\n") {
		return fmt.Errorf("%w: contains characters not allowed in an IRI", ErrInvalidURI)
	}
	return nil
}

// Fragment encodes uri for the shareable URL fragment, without the leading #.
func Fragment(uri common.ParcelURI) string {
	return strings.ReplaceAll(url.QueryEscape(string(uri)), "+", "%20")
}

// ParseFragment decodes a fragment written by Fragment. A leading # is
// accepted.
func ParseFragment(fragment string) (string, error) {
	s, err := url.PathUnescape(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	return s, nil
}
