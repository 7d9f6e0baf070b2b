package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/app"
	pgstore "github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/infra/postgres"
	pgmigrations "github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/infra/postgres/migrations"
	rediscache "github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestProgressEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAndSeed(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewStore(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	leaderboards := rediscache.NewLeaderboardCache(redisClient, store, 5*time.Minute)
	service := app.NewProgressService(store, leaderboards, 600)

	started, err := service.Start(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Mode != app.ModeTimeStarted {
		t.Fatalf("expected time_started, got %s", started.Mode)
	}

	// An immediate finish sits under the threshold and must be flagged.
	finished, err := service.Finish(ctx, "u1", "p1", true)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finished.Mode != app.ModeUpdatedFirstSolve || !finished.Flagged {
		t.Fatalf("expected flagged first solve, got %+v", finished)
	}

	var auditReason string
	if err := pool.QueryRow(ctx, `SELECT reason FROM flagged_problems WHERE user_id='u1' AND problem_id='p1'`).Scan(&auditReason); err != nil {
		t.Fatalf("audit row: %v", err)
	}
	if !strings.Contains(auditReason, "threshold") {
		t.Fatalf("unexpected audit reason: %q", auditReason)
	}

	again, err := service.Finish(ctx, "u1", "p1", true)
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if again.Mode != app.ModeAlreadySolved {
		t.Fatalf("expected already_solved_no_change, got %s", again.Mode)
	}
	if !again.Record.SolvedAt.Equal(*finished.Record.SolvedAt) {
		t.Fatalf("repeated finish mutated the record")
	}

	lb, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Rows) != 1 || lb.Rows[0].UserID != "u1" || lb.Rows[0].TotalSolved != 1 {
		t.Fatalf("unexpected leaderboard: %+v", lb.Rows)
	}
	if lb.Rows[0].FullName != "Alice" {
		t.Fatalf("expected profile join, got %q", lb.Rows[0].FullName)
	}

	ids, err := service.SolvedProblemIDs(ctx, "u1")
	if err != nil {
		t.Fatalf("solved ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != "p1" {
		t.Fatalf("unexpected solved ids: %v", ids)
	}
}

func migrateAndSeed(t *testing.T, ctx context.Context, dsn string) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO profiles (id, full_name, has_access) VALUES ('u1', 'Alice', TRUE) ON CONFLICT (id) DO NOTHING`); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "contest", "POSTGRES_PASSWORD": "contestpass", "POSTGRES_DB": "contestdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://contest:contestpass@%s:%s/contestdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
