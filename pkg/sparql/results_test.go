package sparql

import (
	"testing"

	"github.com/goudatijdmachine/filiatie/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResults(t *testing.T) {
	body := `{
	  "head": {"vars": ["bron", "doel"]},
	  "results": {"bindings": [
	    {"bron": {"type": "uri", "value": "S"}, "doel": {"type": "uri", "value": "A"}},
	    {"bron": {"type": "uri", "value": "A"}},
	    {"bron": {"type": "uri", "value": "A"}, "doel": {"type": "uri", "value": "B"}}
	  ]}
	}`

	r, err := DecodeResults(body)
	require.NoError(t, err)

	assert.Equal(t, []string{"bron", "doel"}, r.Head.Vars)
	assert.Len(t, r.Bindings(), 3)
	assert.Equal(t, []common.Binding{
		{Source: "S", Target: "A"},
		{Source: "A", Target: "B"},
	}, r.Edges("bron", "doel"))

	v, ok := r.First("bron")
	assert.True(t, ok)
	assert.Equal(t, "S", v)

	_, ok = r.First("wkt")
	assert.False(t, ok)
}

func TestDecodeResults_Empty(t *testing.T) {
	r, err := DecodeResults(`{"head":{"vars":["wkt"]},"results":{"bindings":[]}}`)
	require.NoError(t, err)

	_, ok := r.First("wkt")
	assert.False(t, ok)
	assert.Empty(t, r.Edges("bron", "doel"))
}

func TestDecodeResults_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":        "<html>oops</html>",
		"missing results": `{"head":{"vars":[]}}`,
		"truncated":       `{"results":{"bindings":[`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeResults(body)
			assert.ErrorIs(t, err, ErrMalformedResults)
		})
	}
}
