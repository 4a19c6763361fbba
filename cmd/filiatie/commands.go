package main

import (
	"errors"
	"fmt"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/pkg/common"
	"github.com/goudatijdmachine/filiatie/pkg/geo"
	"github.com/goudatijdmachine/filiatie/pkg/query"

	"github.com/spf13/cobra"
)

var (
	treeRelation     string
	geometryProvider string
)

var graphCmd = &cobra.Command{
	Use:   "graph [uri]",
	Short: "Show the lineage graph and both lineage trees of a parcel",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exp, closeFn, err := newExplorer(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		in := inputFrom(args)
		if opts.jsonOutput {
			uri, err := explorer.ResolveInput(in)
			if err != nil {
				return err
			}
			// A failed load is described inside the view.
			view, _ := exp.LoadGraph(ctx, uri)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"graph": view,
				"trees": exp.Trees(ctx, uri),
			})
		}

		sess := explorer.NewSession(exp, newTerminalPresenter(cmd.OutOrStdout()))
		defer sess.Close()
		err = sess.Load(ctx, in)
		if errors.Is(err, explorer.ErrMissingInput) || errors.Is(err, explorer.ErrInvalidURI) {
			return err
		}
		if sess.State() == explorer.StateError {
			return errors.New("lineage graph could not be loaded")
		}
		return nil
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree [uri]",
	Short: "Print the text lineage tree of a parcel",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var relations []common.Relation
		if treeRelation != "" {
			rel, err := query.ParseRelation(treeRelation)
			if err != nil {
				return err
			}
			relations = append(relations, rel)
		} else {
			relations = common.Relations
		}

		uri, err := explorer.ResolveInput(inputFrom(args))
		if err != nil {
			return err
		}
		exp, closeFn, err := newExplorer(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		trees := exp.Trees(ctx, uri, relations...)
		if opts.jsonOutput {
			return writeJSON(cmd.OutOrStdout(), trees)
		}
		p := newTerminalPresenter(cmd.OutOrStdout(), relations...)
		for _, rel := range relations {
			if panel := trees[rel]; panel.Visible {
				p.ShowTree(rel, panel.Root)
			} else {
				p.HideTree(rel)
			}
		}
		return nil
	},
}

var geometryCmd = &cobra.Command{
	Use:   "geometry <uri>",
	Short: "Fetch the geometry of a parcel and the base map it belongs on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exp, closeFn, err := newExplorer(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		hasGeo := geo.ProviderByName(geometryProvider).HasGeo()
		if opts.jsonOutput {
			view, err := exp.FetchGeometry(ctx, args[0], hasGeo)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), view)
		}

		sess := explorer.NewSession(exp, newTerminalPresenter(cmd.OutOrStdout()))
		defer sess.Close()
		if _, err := sess.ShowGeometry(ctx, args[0], hasGeo); err != nil {
			return fmt.Errorf("no map for %s: %w", args[0], err)
		}
		return nil
	},
}

func init() {
	addInputFlags(graphCmd)
	addInputFlags(treeCmd)
	treeCmd.Flags().StringVar(&treeRelation, "relation", "", "opgegaanIn or voortgekomenUit, both when empty")
	geometryCmd.Flags().StringVar(&geometryProvider, "provider", "", `Base map: "hisgis", "brk" or a hasGeo value such as OAT`)
}
