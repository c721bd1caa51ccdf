// triage_dryrun classifies complaint descriptions offline through the same
// worker path the listener uses, backed by the in-memory store, and prints
// the resulting records as JSON.
// Usage: go run ./cmd/triage_dryrun "water pipe leaking" "live wire near school"
//
//	go run ./cmd/triage_dryrun -file descriptions.txt
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"nagrikrakshak/config"
	"nagrikrakshak/models"
	"nagrikrakshak/repository"
	"nagrikrakshak/service"
	"nagrikrakshak/worker"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	file := flag.String("file", "", "read descriptions from this file, one per line")
	noWrite := flag.Bool("no-write", false, "log classifications without applying them to the in-memory store")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found")
	}

	descriptions, err := readDescriptions(*file, flag.Args())
	if err != nil {
		log.Fatalf("Read descriptions: %v", err)
	}
	if len(descriptions) == 0 {
		log.Fatalf("No descriptions given (pass them as arguments or with -file)")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store := repository.NewMemoryComplaintStore()
	batch := models.ChangeBatch{ReadTime: time.Now().UTC()}
	for _, description := range descriptions {
		c := models.Complaint{
			ID:          uuid.New().String(),
			Description: description,
			Status:      models.StatusNew,
		}
		if err := store.Insert(c); err != nil {
			log.Fatalf("Insert complaint: %v", err)
		}
		batch.Events = append(batch.Events, models.ChangeEvent{Type: models.ChangeAdded, ComplaintID: c.ID, Complaint: c})
	}

	metrics := service.NewTriageMetrics()
	triageService := service.NewTriageService(store, service.TriageOptions{
		DryRun:           *noWrite || cfg.Triage.DryRun,
		UpdateMaxRetries: cfg.Triage.UpdateMaxRetries,
	})
	triageWorker := worker.NewTriageWorker(store, triageService, metrics, cfg.Triage.Workers)
	results := triageWorker.ProcessBatch(context.Background(), batch)

	type record struct {
		Complaint models.Complaint     `json:"complaint"`
		Result    *models.TriageResult `json:"result"`
	}
	out := make([]record, 0, len(batch.Events))
	for i, event := range batch.Events {
		c, _ := store.Get(event.ComplaintID)
		out = append(out, record{Complaint: c, Result: results[i]})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Encode output: %v", err)
	}

	snap := metrics.Snapshot()
	fmt.Fprintf(os.Stderr, "classified=%d skipped=%d failed=%d\n", snap.Classified, snap.Skipped, snap.Failed)
}

func readDescriptions(path string, args []string) ([]string, error) {
	var descriptions []string
	for _, arg := range args {
		if strings.TrimSpace(arg) != "" {
			descriptions = append(descriptions, arg)
		}
	}
	if path == "" {
		return descriptions, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			descriptions = append(descriptions, line)
		}
	}
	return descriptions, scanner.Err()
}
