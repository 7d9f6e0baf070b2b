package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/app"
	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/config"
	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/infra/memory"
	pgstore "github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/infra/postgres"
	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/infra/razorpay"
	rediscache "github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/infra/redis"
	transport "github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the contest server",
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
		finalPort = "4000"
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var (
		progressRepo app.ProgressRepository
		problemRepo  app.ProblemRepository
		profileRepo  app.ProfileRepository
	)
	if pool != nil {
		store := pgstore.NewStore(pool)
		progressRepo, problemRepo, profileRepo = store, store, store
	} else {
		store := memory.NewStore()
		store.SeedProfiles(sampleProfiles())
		seedProblems(ctx, store)
		progressRepo, problemRepo, profileRepo = store, store, store
	}

	var leaderboards app.LeaderboardSource
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cacheTTL := config.TTLDuration(cfg.Redis.TTL, time.Minute)
		leaderboards = rediscache.NewLeaderboardCache(redisClient, progressRepo, cacheTTL)
	}

	progress := app.NewProgressService(progressRepo, leaderboards, cfg.AntiCheat.ThresholdSeconds)
	broadcaster := app.NewLeaderboardBroadcaster()
	progress.AttachBroadcaster(broadcaster)

	catalog := app.NewCatalogService(problemRepo, profileRepo)

	var payments *app.PaymentService
	keyID := envFallback(cfg.Payment.KeyID, "RAZORPAY_KEY_ID")
	keySecret := envFallback(cfg.Payment.KeySecret, "RAZORPAY_KEY_SECRET")
	if keyID != "" && keySecret != "" {
		amount := cfg.Payment.AmountPaise
		if amount <= 0 {
			amount = 19900
		}
		gateway := razorpay.NewClient(keyID, keySecret)
		payments = app.NewPaymentService(gateway, profileRepo, amount, cfg.Payment.Currency, keyID)
	}

	handler := transport.NewHandler(progress, catalog, payments)
	wsHandler := transport.NewWSHandler(progress, broadcaster)

	router := handler.Routes()
	router.Get("/ws/leaderboard", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting contest service on :%s", finalPort)
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

func envFallback(value, envKey string) string {
	if value != "" {
		return value
	}
	return os.Getenv(envKey)
}

// sampleProfiles and seedProblems give the in-memory demo mode something to
// serve; production runs against Postgres.
func sampleProfiles() []domain.Profile {
	return []domain.Profile{
		{ID: "u1", FullName: "Alice", HasAccess: true},
		{ID: "u2", FullName: "Bob", HasAccess: true},
	}
}

func seedProblems(ctx context.Context, store *memory.Store) {
	week1 := 1
	pos1, pos2 := 1, 2
	demo := []domain.Problem{
		{Title: "Two Sum", Difficulty: "Easy", Link: "https://leetcode.com/problems/two-sum/", Week: &week1, Position: &pos1},
		{Title: "Add Two Numbers", Difficulty: "Medium", Link: "https://leetcode.com/problems/add-two-numbers/", Week: &week1, Position: &pos2},
	}
	for _, p := range demo {
		if _, err := store.AddProblem(ctx, p); err != nil {
			log.Printf("seed problem %q: %v", p.Title, err)
		}
	}
}
