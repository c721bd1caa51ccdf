package worker

import (
	"context"
	"log"
	"nagrikrakshak/models"
	"nagrikrakshak/service"
	"sync"
	"time"
)

// OpenComplaintLister lists complaints still subject to overdue tracking
type OpenComplaintLister interface {
	ListOpenComplaints(ctx context.Context) ([]models.Complaint, error)
}

// OverdueSweepWorker is a background worker that periodically replays open
// complaints through the overdue check, so complaints nobody touches after
// classification still get flagged once their deadline passes
type OverdueSweepWorker struct {
	lister        OpenComplaintLister
	triageService *service.TriageService
	metrics       *service.TriageMetrics
	interval      time.Duration
	stopChan      chan struct{}
	cancel        context.CancelFunc
	running       bool
	mu            sync.Mutex
	done          chan struct{}
}

// NewOverdueSweepWorker creates a new overdue sweep worker
func NewOverdueSweepWorker(
	lister OpenComplaintLister,
	triageService *service.TriageService,
	metrics *service.TriageMetrics,
	interval time.Duration,
) *OverdueSweepWorker {
	return &OverdueSweepWorker{
		lister:        lister,
		triageService: triageService,
		metrics:       metrics,
		interval:      interval,
	}
}

// Start starts the sweep worker in a separate goroutine
func (w *OverdueSweepWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		log.Println("Overdue sweep worker is already running")
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true
	log.Printf("Overdue sweep worker started (interval: %v)", w.interval)

	go w.run(ctx)
}

// Stop stops the sweep worker and waits for an in-flight sweep to finish
func (w *OverdueSweepWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	log.Println("Stopping overdue sweep worker...")
	close(w.stopChan)
	w.cancel()
	w.running = false
	done := w.done
	w.mu.Unlock()

	<-done
	log.Println("Overdue sweep worker stopped")
}

// run is the main worker loop
func (w *OverdueSweepWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one pass over the open complaints and returns how many were
// flagged overdue. Safe to call repeatedly: already-flagged complaints are
// skipped by the triage service.
func (w *OverdueSweepWorker) Sweep(ctx context.Context) int {
	startTime := time.Now()

	complaints, err := w.lister.ListOpenComplaints(ctx)
	if err != nil {
		log.Printf("[SWEEP] Error listing open complaints: %v", err)
		return 0
	}

	flagged := 0
	for _, complaint := range complaints {
		event := models.ChangeEvent{Type: models.ChangeModified, ComplaintID: complaint.ID, Complaint: complaint}
		result, err := w.triageService.HandleEvent(ctx, event)
		w.metrics.RecordResult(result, err)
		if err != nil {
			log.Printf("[SWEEP] Skipping complaint %s: %v", complaint.ID, err)
			continue
		}
		if result.Outcome == models.OutcomeFlaggedOverdue {
			flagged++
		}
	}

	log.Printf("[SWEEP] Checked %d open complaints in %v: %d flagged overdue",
		len(complaints), time.Since(startTime), flagged)
	return flagged
}
