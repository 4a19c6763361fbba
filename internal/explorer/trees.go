package explorer

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/goudatijdmachine/filiatie/pkg/common"
	"github.com/goudatijdmachine/filiatie/pkg/graph"
	"github.com/goudatijdmachine/filiatie/pkg/logger"
	"github.com/goudatijdmachine/filiatie/pkg/query"
	"github.com/goudatijdmachine/filiatie/pkg/sparql"

	"golang.org/x/sync/errgroup"
)

// TreePanel is the text tree of one relation. A panel is only visible when
// the relation query returned at least one binding.
type TreePanel struct {
	Visible  bool             `json:"visible"`
	Bindings int              `json:"bindings"`
	Root     *common.TreeNode `json:"root,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type Trees map[common.Relation]TreePanel

// FetchTree queries the bindings of relation from start and builds the tree.
func (e *Explorer) FetchTree(ctx context.Context, start common.ParcelURI, relation common.Relation) (TreePanel, error) {
	body, err := e.exec.Execute(ctx, sparql.Request{
		Query:    query.RelationBindings(start, relation),
		Endpoint: e.endpoints.Lineage,
		Accept:   sparql.AcceptResultsJSON,
		Method:   http.MethodGet,
	})
	if err != nil {
		return TreePanel{}, fmt.Errorf("failed to fetch %s bindings: %w", relation, err)
	}

	res, err := sparql.DecodeResults(body)
	if err != nil {
		return TreePanel{}, fmt.Errorf("failed to decode %s bindings: %w", relation, err)
	}

	bindings := res.Edges("bron", "doel")
	return TreePanel{
		Visible:  len(bindings) > 0,
		Bindings: len(bindings),
		Root:     graph.BuildTree(start, bindings),
	}, nil
}

// ForEachTree builds the tree of every relation concurrently and calls done
// as each one settles. A failed relation produces a hidden panel and never
// affects the other. ForEachTree returns once all relations have settled.
func (e *Explorer) ForEachTree(ctx context.Context, start common.ParcelURI, done func(common.Relation, TreePanel)) {
	e.forEachTree(ctx, start, common.Relations, done)
}

func (e *Explorer) forEachTree(ctx context.Context, start common.ParcelURI, relations []common.Relation, done func(common.Relation, TreePanel)) {
	// Tasks never return an error so Wait acts as a plain barrier and the
	// group context is never cancelled by a sibling.
	g, gctx := errgroup.WithContext(ctx)
	for _, rel := range relations {
		g.Go(func() error {
			panel, err := e.FetchTree(gctx, start, rel)
			if err != nil {
				logger.Error("[Explorer] Failed to build lineage tree", "relation", rel, "uri", start, "err", err)
				panel = TreePanel{Error: ErrorMessage(err)}
			}
			done(rel, panel)
			return nil
		})
	}
	_ = g.Wait()
}

// Trees builds the lineage trees of start for the given relations, or for
// both when none are given.
func (e *Explorer) Trees(ctx context.Context, start common.ParcelURI, relations ...common.Relation) Trees {
	if len(relations) == 0 {
		relations = common.Relations
	}
	var mu sync.Mutex
	out := make(Trees, len(relations))
	e.forEachTree(ctx, start, relations, func(rel common.Relation, panel TreePanel) {
		mu.Lock()
		out[rel] = panel
		mu.Unlock()
	})
	return out
}
