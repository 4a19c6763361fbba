package common

import (
	"regexp"
	"strings"
)

var reParcelLabel = regexp.MustCompile(`perceel/([^/]+/[^/]+)$`)

// ParcelURI identifies a cadastral parcel ("perceel") in the triple store.
// The value is opaque for identity purposes, but its path encodes the
// municipality and parcel code, which is used to derive display labels.
//
// Example:
//
//	https://www.goudatijdmachine.nl/id/perceel/GDA01/N1452
type ParcelURI string

// Label returns the "{gemeente}/{code}" suffix that follows a "perceel/"
// path segment. If the URI has no such segment, the final "/"-delimited
// segment is returned.
func (u ParcelURI) Label() string {
	s := string(u)
	if m := reParcelLabel.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s[strings.LastIndex(s, "/")+1:]
}

// ShortLabel joins the last two path segments with a dash, e.g.
// "GDA01-N1452". It is used for the text tree rendering.
func (u ParcelURI) ShortLabel() string {
	parts := strings.Split(string(u), "/")
	if len(parts) < 2 {
		return string(u)
	}
	return parts[len(parts)-2] + "-" + parts[len(parts)-1]
}

// Node represents a parcel in a lineage graph. The ID is unique within a
// single parse result.
//
// HasGeo, when set, names the geometry source for the parcel (for example
// "OAT" for historical boundaries or "BRK" for the current cadastre). Its
// value selects the map provider downstream; it is not a boolean flag.
type Node struct {
	ID     ParcelURI `json:"id"`
	Label  string    `json:"label"`
	HasGeo string    `json:"hasGeo,omitempty"`
}

// Link is a directed "merged into" edge between two parcels. Multiple links
// between the same pair are allowed and their order reflects parse order.
type Link struct {
	Source ParcelURI `json:"source"`
	Target ParcelURI `json:"target"`
}

// Graph is the result of parsing a lineage response: a node set in
// first-seen order and the links between them.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// NodeType describes a node's topological relation to the start node of a
// query.
type NodeType string

const (
	// NodeTypeStart marks the designated query origin.
	NodeTypeStart NodeType = "start"
	// NodeTypeNext marks nodes directly linked to the start node, in either
	// direction.
	NodeTypeNext NodeType = "next"
	// NodeTypeAny marks every other node.
	NodeTypeAny NodeType = "any"
)

// ClassifiedNode is a Node tagged with its NodeType.
type ClassifiedNode struct {
	Node
	Type NodeType `json:"type"`
}

// Relation is one of the two lineage relations a text tree can follow.
type Relation string

const (
	// RelationOpgegaanIn follows "merged into" towards descendants.
	RelationOpgegaanIn Relation = "opgegaanIn"
	// RelationVoortgekomenUit follows "descended from" towards origins.
	RelationVoortgekomenUit Relation = "voortgekomenUit"
)

// Relations lists the lineage relations in display order.
var Relations = []Relation{RelationOpgegaanIn, RelationVoortgekomenUit}

// Binding is one (source, target) pair from a relation query.
type Binding struct {
	Source ParcelURI `json:"source"`
	Target ParcelURI `json:"target"`
}

// TreeNode is a node of a lineage text tree. A node without children is a
// leaf; a node with children can be collapsed and starts expanded.
//
// Cycle is set on a node that was already present on the path from the
// root. Such a node is rendered as a leaf instead of being expanded again.
type TreeNode struct {
	URI      ParcelURI   `json:"uri"`
	Label    string      `json:"label"`
	Expanded bool        `json:"expanded,omitempty"`
	Cycle    bool        `json:"cycle,omitempty"`
	Children []*TreeNode `json:"children"`
}

// IsLeaf reports whether the node has no children.
func (n *TreeNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Size returns the number of nodes in the tree rooted at n.
func (n *TreeNode) Size() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}
