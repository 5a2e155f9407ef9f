package orchestrator

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"linkedin-ingest/internal/models"
)

// Result is the outcome of one profile in a batch.
type Result struct {
	ProfileID string
	Document  models.ProfileDocument
	Err       error
}

// IngestBatch ingests ids with at most ingest.max_concurrency in flight and
// returns one Result per id in input order. Individual failures do not stop
// the batch; cancelling ctx fails the ids not yet started.
func (in *Ingestor) IngestBatch(ctx context.Context, ids []string) []Result {
	limit := in.maxConcurrency
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)
	results := make([]Result, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		results[i].ProfileID = id
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].Err = err
			continue
		}
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer sem.Release(1)
			results[i].Document, results[i].Err = in.Ingest(ctx, id)
		}(i, id)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	in.logger.Info("batch finished", zap.Int("total", len(ids)), zap.Int("failed", failed))
	return results
}
