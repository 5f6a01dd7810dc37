package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"interview-portal-service/internal/app"
	"interview-portal-service/internal/config"
	"interview-portal-service/internal/domain"
	"interview-portal-service/internal/infra/memory"
	"interview-portal-service/internal/infra/postgres"
	redisinfra "interview-portal-service/internal/infra/redis"
	transport "interview-portal-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the interview portal server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	scope, err := domain.ParseScope(cfg.Interview.Scope)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	stateTTL := config.TTLDuration(cfg.Redis.TTL, time.Hour)
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)

	// Durable stores live in Postgres; without a URL the server runs on
	// an in-memory store seeded with the demo catalog.
	var (
		catalogStore app.CatalogStore
		sessions     app.SessionStore
		answers      app.AnswerStore
		results      app.ResultStore
		candidates   app.CandidateStore
		loader       memory.PositionLoader
	)
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		store := postgres.NewStore(db)
		catalogStore, sessions, answers, results, candidates = store, store, store, store, store

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewPositionLoader(pool)
	} else {
		store := memory.NewStore()
		seedDemoCatalog(ctx, store)
		catalogStore, sessions, answers, results, candidates = store, store, store, store, store
		loader = store
	}

	var (
		catalog interface {
			app.PositionCatalog
			app.CatalogCache
		}
		state app.SessionState
	)
	if redisClient != nil {
		catalog = redisinfra.NewCatalogCache(redisClient, loader, catalogTTL)
		state = redisinfra.NewSessionState(redisClient, stateTTL)
	} else {
		catalog = memory.NewCatalogCache(loader, catalogTTL)
		state = memory.NewSessionState()
	}

	catalogSvc := app.NewCatalogService(catalogStore, catalog)
	interviews := app.NewInterviewService(catalog, sessions, answers, candidates, state, scope)
	selector := app.NewSelector(sessions, catalog, state, cfg.Interview.QuestionCount)
	scorer := app.NewScorer(sessions, catalog, answers, state, cfg.Interview.AllowResubmit)
	aggregator := app.NewAggregator(catalog, sessions, answers, results, candidates)
	feed := app.NewRankingFeed(aggregator)
	scorer.SetCompletionListener(feed)

	handler := transport.NewHandler(catalogSvc, interviews, selector, scorer, aggregator)
	wsHandler := transport.NewWSHandler(feed)

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("/ws/rankings", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting interview portal on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
