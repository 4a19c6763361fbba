package graph

import "github.com/goudatijdmachine/filiatie/pkg/common"

// Classify tags each node by its relation to start. Links count in both
// directions: a node that appears on the other end of any link touching
// start is NodeTypeNext. The result has the same length and order as nodes
// and the input slice is not modified.
func Classify(nodes []common.Node, links []common.Link, start common.ParcelURI) []common.ClassifiedNode {
	neighbors := make(map[common.ParcelURI]struct{})
	for _, l := range links {
		if l.Source == start {
			neighbors[l.Target] = struct{}{}
		}
		if l.Target == start {
			neighbors[l.Source] = struct{}{}
		}
	}

	out := make([]common.ClassifiedNode, len(nodes))
	for i, n := range nodes {
		t := common.NodeTypeAny
		if n.ID == start {
			t = common.NodeTypeStart
		} else if _, ok := neighbors[n.ID]; ok {
			t = common.NodeTypeNext
		}
		out[i] = common.ClassifiedNode{Node: n, Type: t}
	}
	return out
}
