package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goudatijdmachine/filiatie/internal/explorer"
	"github.com/goudatijdmachine/filiatie/internal/util"
	"github.com/goudatijdmachine/filiatie/pkg/common"
	"github.com/goudatijdmachine/filiatie/pkg/geo"
	"github.com/goudatijdmachine/filiatie/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

const ExportQueue = "export_queue"

// geometryFetchLimit bounds concurrent geometry requests per export.
const geometryFetchLimit = 4

const putTries = 3

var putRetryDelay = 2 * time.Second

// ExportJob asks the worker to write the lineage bundle of URI.
type ExportJob struct {
	ID  string           `json:"id"`
	URI common.ParcelURI `json:"uri"`
}

// Bundle is the document stored for a finished export.
type Bundle struct {
	ID         string                         `json:"id"`
	URI        common.ParcelURI               `json:"uri"`
	CreatedAt  time.Time                      `json:"createdAt"`
	Graph      *explorer.GraphView            `json:"graph"`
	Trees      explorer.Trees                 `json:"trees"`
	Geometries map[common.ParcelURI]*geo.View `json:"geometries"`
}

// ObjectStore receives finished bundles.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// ExportKey is the object key of the bundle with the given id.
func ExportKey(id string) string {
	return "exports/" + id + ".json"
}

// EnqueueExport publishes a new export job for uri and returns its id.
func EnqueueExport(ch Publisher, uri common.ParcelURI) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate export id: %w", err)
	}

	data, err := json.Marshal(ExportJob{ID: id, URI: uri})
	if err != nil {
		return "", err
	}
	if err := PublishFIFO(ch, ExportQueue, data); err != nil {
		return "", fmt.Errorf("failed to publish export job: %w", err)
	}

	logger.Info("[Queue] Export queued", "id", id, "uri", uri)
	return id, nil
}

// ProcessExport loads the graph, both trees and the geometries of every
// geocoded node for the job in body and writes the bundle to store.
// A failing lineage query fails the job. Missing or broken geometries are
// logged and left out of the bundle.
func ProcessExport(ctx context.Context, exp *explorer.Explorer, store ObjectStore, body []byte) error {
	var job ExportJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("failed to decode export job: %w", err)
	}
	if job.ID == "" || job.URI == "" {
		return fmt.Errorf("export job is missing id or uri")
	}
	if err := explorer.ValidateURI(job.URI); err != nil {
		return fmt.Errorf("export %s: %w", job.ID, err)
	}

	view, err := exp.LoadGraph(ctx, job.URI)
	if err != nil {
		return fmt.Errorf("export %s: %w", job.ID, err)
	}

	bundle := Bundle{
		ID:         job.ID,
		URI:        job.URI,
		CreatedAt:  time.Now().UTC(),
		Graph:      view,
		Trees:      exp.Trees(ctx, job.URI),
		Geometries: fetchGeometries(ctx, exp, view.Nodes),
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode export %s: %w", job.ID, err)
	}
	err = util.RetryErrWithContext(ctx, putTries, putRetryDelay, func(ctx context.Context) error {
		return store.Put(ctx, ExportKey(job.ID), "application/json", data)
	})
	if err != nil {
		return err
	}

	logger.Info("[Queue] Export written", "id", job.ID, "nodes", len(view.Nodes), "geometries", len(bundle.Geometries))
	return nil
}

func fetchGeometries(ctx context.Context, exp *explorer.Explorer, nodes []common.ClassifiedNode) map[common.ParcelURI]*geo.View {
	var mu sync.Mutex
	out := make(map[common.ParcelURI]*geo.View)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(geometryFetchLimit)
	for _, n := range nodes {
		if n.HasGeo == "" {
			continue
		}
		g.Go(func() error {
			v, err := exp.FetchGeometry(gctx, string(n.ID), n.HasGeo)
			if err != nil {
				if !errors.Is(err, explorer.ErrNoGeometry) {
					logger.Warn("[Queue] Skipping geometry", "id", n.ID, "err", err)
				}
				return nil
			}
			mu.Lock()
			out[n.ID] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
