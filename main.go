package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"nagrikrakshak/config"
	"nagrikrakshak/repository"
	"nagrikrakshak/routes"
	"nagrikrakshak/schema"
	"nagrikrakshak/service"
	"nagrikrakshak/worker"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Triage.DryRun {
		log.Printf("[DRY RUN] Triage dry-run mode ENABLED: classifications are logged, never written")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Initialize the record store; configuration errors are fatal before subscribing
	store, err := openStore(ctx, cfg)
	if err != nil {
		stop()
		log.Fatalf("Failed to initialize %s store: %v", cfg.Store.Backend, err)
	}

	// Initialize services
	metrics := service.NewTriageMetrics()
	triageService := service.NewTriageService(store, service.TriageOptions{
		DryRun:           cfg.Triage.DryRun,
		UpdateMaxRetries: cfg.Triage.UpdateMaxRetries,
		UpdateRetryDelay: cfg.Triage.UpdateRetryDelay,
	})

	// Keep-alive server runs on its own goroutine and shares only the metrics
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           routes.SetupRoutes(metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Keep-alive server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Keep-alive server failed: %v", err)
		}
	}()

	var sweeper *worker.OverdueSweepWorker
	if cfg.Triage.OverdueSweepInterval > 0 {
		sweeper = worker.NewOverdueSweepWorker(store, triageService, metrics, cfg.Triage.OverdueSweepInterval)
		sweeper.Start(ctx)
	} else {
		log.Printf("Overdue sweep DISABLED (overdue checks run on change events only)")
	}

	triageWorker := worker.NewTriageWorker(store, triageService, metrics, cfg.Triage.Workers)
	runErr := triageWorker.Run(ctx)

	shutdown(server, sweeper, store)
	stop()

	// A dropped subscription is fatal; the platform restarts the process
	if runErr != nil {
		log.Printf("Triage worker exited: %v", runErr)
		os.Exit(1)
	}
	log.Println("Shutdown complete")
}

// shutdown stops the keep-alive server and the sweep worker, then releases the store
func shutdown(server *http.Server, sweeper *worker.OverdueSweepWorker, store repository.ComplaintStore) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Keep-alive server shutdown: %v", err)
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	if err := store.Close(); err != nil {
		log.Printf("Store close: %v", err)
	}
}

// openStore builds the configured ComplaintStore backend
func openStore(ctx context.Context, cfg *config.Config) (repository.ComplaintStore, error) {
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		account, err := config.LoadServiceAccount(cfg.Credentials, cfg.Store.ProjectID)
		if err != nil {
			return nil, err
		}
		log.Printf("Loaded service account from %s (project %s)", account.Source, account.ProjectID)

		store, err := repository.NewFirestoreRepository(ctx, account.ProjectID, cfg.Store.Collection, account.JSON)
		if err != nil {
			return nil, err
		}
		log.Println("Connected to Firestore")
		return store, nil

	case config.BackendMySQL:
		dsn, err := cfg.Database.DSN()
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Println("Database connection established")

		schema.InitializeDatabase(db)
		schema.ValidateColumnTypes(db)
		return repository.NewComplaintRepository(db, cfg.Database.PollInterval), nil

	case config.BackendMemory:
		log.Println("Using in-memory complaint store (data is not persisted)")
		return repository.NewMemoryComplaintStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
