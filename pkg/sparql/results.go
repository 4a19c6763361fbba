package sparql

import (
	"encoding/json"
	"fmt"

	"github.com/goudatijdmachine/filiatie/pkg/common"
)

// Term is one bound value in a SPARQL JSON results row.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []map[string]Term `json:"bindings"`
	} `json:"results"`
}

// DecodeResults parses an application/sparql-results+json document.
func DecodeResults(body string) (*Results, error) {
	var r Results
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResults, err)
	}
	if r.Results == nil {
		return nil, fmt.Errorf("%w: missing results object", ErrMalformedResults)
	}
	return &r, nil
}

func (r *Results) Bindings() []map[string]Term {
	if r == nil || r.Results == nil {
		return nil
	}
	return r.Results.Bindings
}

// First returns the value of variable in the first row, if bound.
func (r *Results) First(variable string) (string, bool) {
	rows := r.Bindings()
	if len(rows) == 0 {
		return "", false
	}
	t, ok := rows[0][variable]
	if !ok {
		return "", false
	}
	return t.Value, true
}

// Edges maps each row onto a Binding using the from and to variables.
// Rows that leave either variable unbound are skipped.
func (r *Results) Edges(from, to string) []common.Binding {
	rows := r.Bindings()
	out := make([]common.Binding, 0, len(rows))
	for _, row := range rows {
		src, ok := row[from]
		if !ok {
			continue
		}
		dst, ok := row[to]
		if !ok {
			continue
		}
		out = append(out, common.Binding{
			Source: common.ParcelURI(src.Value),
			Target: common.ParcelURI(dst.Value),
		})
	}
	return out
}
