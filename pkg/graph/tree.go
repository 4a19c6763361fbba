package graph

import "github.com/goudatijdmachine/filiatie/pkg/common"

// Adjacency maps a source parcel to its targets in the order the bindings
// were returned. Duplicate targets are kept.
type Adjacency map[common.ParcelURI][]common.ParcelURI

// GroupBindings builds the source -> targets adjacency for one relation.
func GroupBindings(bindings []common.Binding) Adjacency {
	adj := make(Adjacency)
	for _, b := range bindings {
		adj[b.Source] = append(adj[b.Source], b.Target)
	}
	return adj
}

// BuildTree materializes the lineage tree rooted at start from the flat
// relation bindings of a single relation query.
func BuildTree(start common.ParcelURI, bindings []common.Binding) *common.TreeNode {
	return BuildTreeFromAdjacency(start, GroupBindings(bindings))
}

// BuildTreeFromAdjacency materializes the tree rooted at start.
//
// Inconsistent source data can contain cycles. A node that already occurs
// on the path from the root is emitted as a leaf with Cycle set, so the
// recursion always terminates. Nodes reached through different branches
// are expanded in each branch.
func BuildTreeFromAdjacency(start common.ParcelURI, adj Adjacency) *common.TreeNode {
	return buildNode(start, adj, make(map[common.ParcelURI]bool))
}

func buildNode(uri common.ParcelURI, adj Adjacency, path map[common.ParcelURI]bool) *common.TreeNode {
	node := &common.TreeNode{
		URI:      uri,
		Label:    uri.ShortLabel(),
		Children: []*common.TreeNode{},
	}
	if path[uri] {
		node.Cycle = true
		return node
	}

	targets := adj[uri]
	if len(targets) == 0 {
		return node
	}

	path[uri] = true
	node.Expanded = true
	for _, target := range targets {
		node.Children = append(node.Children, buildNode(target, adj, path))
	}
	delete(path, uri)

	return node
}
