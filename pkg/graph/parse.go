package graph

import (
	"regexp"
	"strings"

	"github.com/goudatijdmachine/filiatie/pkg/common"
)

var (
	reURITriple     = regexp.MustCompile(`<([^>]+)>\s+<([^>]+)>\s+<([^>]+)>\s*\.`)
	reLiteralTriple = regexp.MustCompile(`<([^>]+)>\s+<([^>]+)>\s+"([^"]+)"\s*\.`)
)

const (
	predicateHasGeo     = "hasGeo"
	predicateOpgegaanIn = "opgegaanIn"
)

// Triple is a single statement read from an N-Triples line. Object holds
// either the IRI (without angle brackets) or the literal's lexical value.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
	Literal   bool
}

// ParseTripleLine reads one N-Triples line. Blank lines, comments and lines
// that are neither an IRI-object nor a plain-literal statement report false.
func ParseTripleLine(line string) (Triple, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Triple{}, false
	}

	if m := reURITriple.FindStringSubmatch(line); m != nil {
		return Triple{Subject: m[1], Predicate: m[2], Object: m[3]}, true
	}
	if m := reLiteralTriple.FindStringSubmatch(line); m != nil {
		return Triple{Subject: m[1], Predicate: m[2], Object: m[3], Literal: true}, true
	}
	return Triple{}, false
}

// builder accumulates nodes in first-seen order and lets a node record be
// enriched after it was created.
type builder struct {
	index map[common.ParcelURI]int
	nodes []common.Node
	links []common.Link
}

func newBuilder() *builder {
	return &builder{
		index: make(map[common.ParcelURI]int),
		nodes: []common.Node{},
		links: []common.Link{},
	}
}

func (b *builder) upsert(id common.ParcelURI) *common.Node {
	if i, ok := b.index[id]; ok {
		return &b.nodes[i]
	}
	b.index[id] = len(b.nodes)
	b.nodes = append(b.nodes, common.Node{ID: id, Label: id.Label()})
	return &b.nodes[len(b.nodes)-1]
}

func (b *builder) add(t Triple) {
	subject := common.ParcelURI(t.Subject)

	if strings.Contains(t.Predicate, predicateHasGeo) {
		b.upsert(subject).HasGeo = t.Object
	}

	if strings.Contains(t.Predicate, predicateOpgegaanIn) {
		object := common.ParcelURI(t.Object)
		b.upsert(subject)
		b.upsert(object)
		b.links = append(b.links, common.Link{Source: subject, Target: object})
	}
}

// ParseNTriples converts a CONSTRUCT response in N-Triples form into a
// lineage graph.
//
// Only two predicate families are recognized, matched by substring on the
// predicate IRI:
//   - "hasGeo" records the object as the subject's HasGeo value, creating
//     the subject node if needed. A later statement overwrites the value.
//   - "opgegaanIn" ensures both endpoints exist as nodes and appends a
//     subject -> object link.
//
// All other predicates are ignored. Lines that cannot be read are skipped;
// the function never fails. Empty input yields empty, non-nil slices.
func ParseNTriples(text string) common.Graph {
	b := newBuilder()
	for _, line := range strings.Split(text, "\n") {
		t, ok := ParseTripleLine(line)
		if !ok {
			continue
		}
		b.add(t)
	}
	return common.Graph{Nodes: b.nodes, Links: b.links}
}
