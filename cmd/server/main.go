package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chrisf-bit/store-manager/internal/game"
	"github.com/chrisf-bit/store-manager/internal/httpapi"
	"github.com/chrisf-bit/store-manager/internal/persistence/auditlog"
	"github.com/chrisf-bit/store-manager/internal/sim/catalogs"
	"github.com/chrisf-bit/store-manager/internal/sim/tuning"
	"github.com/chrisf-bit/store-manager/internal/store"
	"github.com/chrisf-bit/store-manager/internal/store/memory"
	"github.com/chrisf-bit/store-manager/internal/store/sqldb"
	"github.com/chrisf-bit/store-manager/internal/transport/watch"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		schemaDir  = flag.String("schemas", "./schemas", "request schema directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dbMode     = flag.String("db", "sqlite", "persistence backend: memory, sqlite or postgres")
		pgDSN      = flag.String("pg_dsn", "", "postgres connection string (or set SM_PG_DSN)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	logger.Printf("catalogs loaded: %d decisions, %d events, %d scenarios",
		len(cats.Decisions.Templates), len(cats.Events.Templates), len(cats.Scenarios.Scenarios))

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	repo, err := openRepository(*dbMode, *dataDir, *pgDSN)
	if err != nil {
		logger.Fatalf("open repository: %v", err)
	}
	defer repo.Close()
	logger.Printf("repository: %s", *dbMode)

	var audit *auditlog.Writer
	if tune.Audit.Enabled {
		audit = auditlog.NewWriter(tune.Audit.Dir, tune.Audit.ZstdLevel)
		defer audit.Close()
	}

	hub := watch.NewHub(logger)

	svc := game.New(game.Config{
		Log:      logger,
		Repo:     repo,
		Catalogs: cats,
		Tuning:   tune,
		Audit:    audit,
		Hub:      hub,
	})

	api, err := httpapi.NewServer(logger, svc, hub, *schemaDir)
	if err != nil {
		logger.Fatalf("http api: %v", err)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(tune.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(tune.HTTP.WriteTimeoutSec) * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), time.Duration(tune.HTTP.ShutdownTimeoutSec)*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func openRepository(mode, dataDir, pgDSN string) (store.Repository, error) {
	switch mode {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		return sqldb.OpenSQLite(filepath.Join(dataDir, "store.db"))
	case "postgres":
		dsn := strings.TrimSpace(pgDSN)
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("SM_PG_DSN"))
		}
		if dsn == "" {
			return nil, fmt.Errorf("postgres backend needs -pg_dsn or SM_PG_DSN")
		}
		return sqldb.OpenPostgres(dsn)
	}
	return nil, fmt.Errorf("unknown db mode %q", mode)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
