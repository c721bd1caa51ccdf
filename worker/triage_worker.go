package worker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"nagrikrakshak/models"
	"nagrikrakshak/service"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeFeed is the subscription side of the record store
type ChangeFeed interface {
	Subscribe(ctx context.Context, out chan<- models.ChangeBatch) error
}

// SubscriptionError means the change feed dropped. It is fatal to the
// process; restarting is the recovery strategy.
type SubscriptionError struct {
	Err error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("change feed subscription failed: %v", e.Err)
}

// Unwrap returns the underlying feed error
func (e *SubscriptionError) Unwrap() error {
	return e.Err
}

// TriageWorker consumes the change feed and hands every event to the
// triage service. Batches are processed one at a time, in delivery order.
type TriageWorker struct {
	feed          ChangeFeed
	triageService *service.TriageService
	metrics       *service.TriageMetrics
	shards        int
}

// NewTriageWorker creates a new triage worker. shards > 1 processes
// different complaints of one batch in parallel; events for the same
// complaint always land on the same shard and keep their order.
func NewTriageWorker(
	feed ChangeFeed,
	triageService *service.TriageService,
	metrics *service.TriageMetrics,
	shards int,
) *TriageWorker {
	if shards < 1 {
		shards = 1
	}
	return &TriageWorker{
		feed:          feed,
		triageService: triageService,
		metrics:       metrics,
		shards:        shards,
	}
}

// Run subscribes to the feed and blocks until ctx ends (returns nil) or the
// subscription fails (returns *SubscriptionError). Per-complaint failures are
// logged and never stop the loop.
func (w *TriageWorker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	batches := make(chan models.ChangeBatch, 16)
	feedErr := make(chan error, 1)
	go func() {
		feedErr <- w.feed.Subscribe(ctx, batches)
	}()

	log.Printf("🔥 Triage worker listening for complaint changes (shards: %d)", w.shards)

	for {
		select {
		case <-ctx.Done():
			log.Println("Triage worker stopped")
			return nil
		case err := <-feedErr:
			if ctx.Err() != nil {
				log.Println("Triage worker stopped")
				return nil
			}
			if err == nil {
				err = errors.New("feed closed without error")
			}
			return &SubscriptionError{Err: err}
		case batch := <-batches:
			w.ProcessBatch(ctx, batch)
		}
	}
}

// ProcessBatch handles every event of one notification and returns the
// results in event order. Events whose store write failed are dropped.
func (w *TriageWorker) ProcessBatch(ctx context.Context, batch models.ChangeBatch) []*models.TriageResult {
	if len(batch.Events) == 0 {
		w.metrics.RecordBatch(time.Now())
		return nil
	}

	startTime := time.Now()
	batchID := uuid.New().String()[:8]
	results := make([]*models.TriageResult, len(batch.Events))
	failed := make([]bool, len(batch.Events))

	if w.shards == 1 || len(batch.Events) == 1 {
		for i, event := range batch.Events {
			results[i], failed[i] = w.handle(ctx, batchID, event)
		}
	} else {
		w.processSharded(ctx, batchID, batch.Events, results, failed)
	}

	classified, flagged, failures := 0, 0, 0
	for i, result := range results {
		if failed[i] {
			failures++
			continue
		}
		switch result.Outcome {
		case models.OutcomeClassified:
			classified++
		case models.OutcomeFlaggedOverdue:
			flagged++
		}
	}

	w.metrics.RecordBatch(time.Now())
	log.Printf("[WORKER] Batch %s: %d events in %v: %d classified, %d overdue, %d failed",
		batchID, len(batch.Events), time.Since(startTime), classified, flagged, failures)
	return results
}

// processSharded fans events out by complaint id. Each shard runs its events
// sequentially, so per-complaint ordering holds.
func (w *TriageWorker) processSharded(ctx context.Context, batchID string, events []models.ChangeEvent, results []*models.TriageResult, failed []bool) {
	buckets := make([][]int, w.shards)
	for i, event := range events {
		shard := shardFor(event.ComplaintID, w.shards)
		buckets[shard] = append(buckets[shard], i)
	}

	var wg sync.WaitGroup
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		wg.Add(1)
		go func(indexes []int) {
			defer wg.Done()
			for _, i := range indexes {
				results[i], failed[i] = w.handle(ctx, batchID, events[i])
			}
		}(bucket)
	}
	wg.Wait()
}

func (w *TriageWorker) handle(ctx context.Context, batchID string, event models.ChangeEvent) (*models.TriageResult, bool) {
	result, err := w.triageService.HandleEvent(ctx, event)
	w.metrics.RecordResult(result, err)
	if err != nil {
		log.Printf("[WORKER] Batch %s: dropping %s event for complaint %s: %v", batchID, event.Type, event.ComplaintID, err)
		return result, true
	}
	return result, false
}

func shardFor(complaintID string, shards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(complaintID))
	return int(h.Sum32() % uint32(shards))
}
