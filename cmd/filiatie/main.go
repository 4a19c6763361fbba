package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/util"
	"github.com/goudatijdmachine/filiatie/pkg/logger"
	"github.com/goudatijdmachine/filiatie/pkg/logger/console"
	"github.com/goudatijdmachine/filiatie/pkg/sparql"
	"github.com/goudatijdmachine/filiatie/pkg/store"

	_ "github.com/goudatijdmachine/filiatie/pkg/store/memory"
	_ "github.com/goudatijdmachine/filiatie/pkg/store/pgx"
	_ "github.com/goudatijdmachine/filiatie/pkg/store/sqlite"

	"github.com/spf13/cobra"
)

type options struct {
	jsonOutput       bool
	debug            bool
	lineageEndpoint  string
	geometryEndpoint string
	cache            string
	cacheTTL         time.Duration
	timeout          time.Duration

	input explorer.Input
}

var opts options

var rootCmd = &cobra.Command{
	Use:           "filiatie",
	Short:         "Explore the lineage of Gouda cadastral parcels",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug:  opts.debug,
			Output: cmd.ErrOrStderr(),
			Prefix: "filiatie",
		}))
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	util.LoadEnv()

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print JSON instead of text")
	flags.BoolVar(&opts.debug, "debug", util.GetEnvBool("DEBUG", false), "Enable debug logging")
	flags.StringVar(&opts.lineageEndpoint, "lineage-endpoint",
		util.GetEnvString("SPARQL_LINEAGE_ENDPOINT", explorer.DefaultLineageEndpoint), "SPARQL endpoint for lineage and relation queries")
	flags.StringVar(&opts.geometryEndpoint, "geometry-endpoint",
		util.GetEnvString("SPARQL_GEOMETRY_ENDPOINT", explorer.DefaultGeometryEndpoint), "SPARQL endpoint for geometry queries")
	flags.StringVar(&opts.cache, "cache", util.GetEnvString("CACHE_DSN", ""),
		`Response cache: a SQLite file path, "memory" or a postgres:// URL`)
	flags.DurationVar(&opts.cacheTTL, "cache-ttl", util.GetEnvDuration("CACHE_TTL", 0), "Maximum age of cached responses, 0 keeps them forever")
	flags.DurationVar(&opts.timeout, "timeout", util.GetEnvDuration("SPARQL_TIMEOUT", 0), "Per request timeout, 0 disables it")

	rootCmd.AddCommand(graphCmd, treeCmd, geometryCmd)
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.input.Gemeente, "gemeente", "", "Cadastral municipality code, e.g. GDA01")
	cmd.Flags().StringVar(&opts.input.Perceel, "perceel", "", "Parcel code, e.g. N1452")
	cmd.Flags().StringVar(&opts.input.Fragment, "fragment", "", "Shared URL fragment")
}

// inputFrom combines the positional URI with the input flags.
func inputFrom(args []string) explorer.Input {
	in := opts.input
	if len(args) > 0 {
		in.URI = args[0]
	}
	return in
}

// cacheDSN treats a bare path as a SQLite database file.
func cacheDSN(v string) string {
	if v == "" || v == "memory" || strings.Contains(v, ":") {
		return v
	}
	return "sqlite:" + v
}

// newExplorer wires the SPARQL client and the optional cache. The returned
// func releases the cache.
func newExplorer(ctx context.Context) (*explorer.Explorer, func(), error) {
	var exec sparql.Executor = sparql.NewClient(sparql.ClientParams{Timeout: opts.timeout})
	closeFn := func() {}

	if dsn := cacheDSN(opts.cache); dsn != "" {
		cache, err := store.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		exec = store.NewCachingExecutor(exec, cache, opts.cacheTTL)
		closeFn = func() {
			if err := cache.Close(); err != nil {
				logger.Warn("[CLI] Failed to close cache", "err", err)
			}
		}
	}

	return explorer.New(exec, explorer.Endpoints{
		Lineage:  opts.lineageEndpoint,
		Geometry: opts.geometryEndpoint,
	}), closeFn, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
