package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lumera/insight-engine/internal/api"
	"github.com/lumera/insight-engine/internal/config"
	"github.com/lumera/insight-engine/internal/insights"
	"github.com/lumera/insight-engine/internal/llm"
	"github.com/lumera/insight-engine/internal/pkg/distlock"
	"github.com/lumera/insight-engine/internal/pkg/logger"
	"github.com/lumera/insight-engine/internal/quota"
	"github.com/lumera/insight-engine/internal/repository/postgres"
	"github.com/lumera/insight-engine/internal/review"
	"github.com/lumera/insight-engine/internal/storage"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	loc, err := cfg.Review.Location()
	if err != nil {
		log.Fatalf("Failed to resolve timezone: %v", err)
	}

	// Database
	if cfg.Database.URL == "" {
		log.Fatal("No database configured (set DATABASE_URL or database.url)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to database at %s: %v", extractHost(cfg.Database.URL), err)
	}
	logger.Info("database connected", "host", extractHost(cfg.Database.URL))

	// Usage tracker (optional: no Redis means no quota enforcement)
	var tracker *quota.Tracker
	if cfg.Redis.URL != "" {
		tracker, err = quota.NewFromURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer tracker.Close()
	} else {
		logger.Warn("no Redis configured, AI usage quotas are not enforced")
	}

	// LLM generator (optional)
	var generator review.Generator
	if cfg.Bedrock.Enabled {
		client, err := llm.NewBedrockClient(context.Background(), cfg.Bedrock.Region, cfg.Bedrock.ModelID)
		if err != nil {
			log.Fatalf("Failed to initialize Bedrock client: %v", err)
		}
		generator = client
	} else {
		logger.Warn("Bedrock disabled, reviews will use the deterministic fallback")
	}

	// Review archive (optional)
	var archiver review.Archiver
	if cfg.Archive.Enabled && cfg.Archive.Bucket != "" {
		archive, err := storage.NewS3Archive(context.Background(), cfg.Archive.Bucket, cfg.Archive.Region, cfg.Archive.Prefix)
		if err != nil {
			log.Fatalf("Failed to initialize S3 archive: %v", err)
		}
		archiver = archive
	}

	var redisClient *redis.Client
	if tracker != nil {
		redisClient = tracker.Client()
	}

	// Services
	insightSvc := insights.NewService(postgres.NewAnalyticsRepo(db), loc)
	reviewSvc := review.NewService(
		postgres.NewReviewRepo(db),
		generator,
		usageGate(tracker),
		archiver,
		review.Config{RequiredPosts: cfg.Review.RequiredPosts},
	).WithLocks(lockProvider{distlock.NewProvider(redisClient, db, cfg.Review.Timeout()+30*time.Second)})

	handlers := api.NewHandlers(insightSvc, reviewSvc, tracker, loc, cfg.Bedrock.Enabled)
	health := api.NewHealthChecker(db, redisClient)
	server := api.NewServer(cfg.Server, handlers, health)

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("%v", err)
	}

	addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	db.Close()
}

// usageGate adapts the optional tracker to the orchestrator's interface.
// A typed nil inside a non-nil interface would defeat the orchestrator's
// nil check, so the conversion is explicit.
func usageGate(t *quota.Tracker) review.UsageGate {
	if t == nil {
		return nil
	}
	return t
}

// lockProvider bridges the distlock package to the orchestrator's lock
// interface.
type lockProvider struct {
	p *distlock.Provider
}

func (l lockProvider) Lock(key string) review.Lock { return l.p.Lock(key) }
