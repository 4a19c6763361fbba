package graph

import (
	"testing"

	"github.com/goudatijdmachine/filiatie/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodes(ids ...string) []common.Node {
	out := make([]common.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, common.Node{ID: common.ParcelURI(id), Label: id})
	}
	return out
}

func TestClassify(t *testing.T) {
	ns := nodes("S", "A", "B", "C", "D")
	links := []common.Link{
		{Source: "S", Target: "A"},
		{Source: "B", Target: "S"},
		{Source: "A", Target: "C"},
		{Source: "C", Target: "D"},
	}

	got := Classify(ns, links, "S")

	require.Len(t, got, len(ns))
	want := map[common.ParcelURI]common.NodeType{
		"S": common.NodeTypeStart,
		"A": common.NodeTypeNext,
		"B": common.NodeTypeNext,
		"C": common.NodeTypeAny,
		"D": common.NodeTypeAny,
	}
	for i, n := range got {
		assert.Equal(t, ns[i].ID, n.ID, "order must be preserved")
		assert.Equal(t, want[n.ID], n.Type, "node %s", n.ID)
	}
}

func TestClassify_StartAbsent(t *testing.T) {
	got := Classify(nodes("A", "B"), []common.Link{{Source: "A", Target: "B"}}, "S")

	for _, n := range got {
		assert.Equal(t, common.NodeTypeAny, n.Type)
	}
}

func TestClassify_ExactlyOneStart(t *testing.T) {
	ns := nodes("A", "S", "B")
	links := []common.Link{{Source: "S", Target: "S"}, {Source: "A", Target: "S"}}

	got := Classify(ns, links, "S")

	starts := 0
	for _, n := range got {
		if n.Type == common.NodeTypeStart {
			starts++
			assert.Equal(t, common.ParcelURI("S"), n.ID)
		}
	}
	assert.Equal(t, 1, starts)
}

func TestClassify_SingleNode(t *testing.T) {
	got := Classify(nodes("S"), nil, "S")

	require.Len(t, got, 1)
	assert.Equal(t, common.NodeTypeStart, got[0].Type)
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	ns := nodes("S", "A")
	ns[1].HasGeo = "OAT"

	got := Classify(ns, []common.Link{{Source: "S", Target: "A"}}, "S")
	got[1].Label = "changed"

	assert.Equal(t, "A", ns[1].Label)
	assert.Equal(t, "OAT", got[1].HasGeo)
}
