// cmd/syncd/main.go
//
// User-sync daemon – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Start daily rotating logger (tees to console when running in a TTY).
//
//  2. Load config (.env → conf/global.yaml → SYNC_ env overrides, with
//     vault: secret references resolved).
//
//  3. Open the MySQL pool and bootstrap the `user` table.
//
//  4. Open the Redis client for the projection cache.
//
//  5. Build the synchronizer and mount the webhook router plus the
//     Prometheus /metrics endpoint.
//
//  6. Serve until SIGINT/SIGTERM, then drain in-flight requests and
//     close the store and cache clients.
//
// Large comment blocks are framed by blank “//” lines; inline comments
// use a single “//”.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/usersync/internal/cache"
	"github.com/yanizio/usersync/internal/config"
	"github.com/yanizio/usersync/internal/database"
	"github.com/yanizio/usersync/internal/logger"
	"github.com/yanizio/usersync/internal/server"
	"github.com/yanizio/usersync/internal/store"
	"github.com/yanizio/usersync/internal/sync"
	"github.com/yanizio/usersync/internal/webhook"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Config ─────────────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Record store ───────────────────────────────────────────────
	//
	dsn := cfg.Database.DSN
	if strings.Contains(dsn, "%s") {
		dsn = fmt.Sprintf(dsn, cfg.Database.Password)
	}

	logOut.Infow("connecting to MySQL")
	db, err := database.Open(dsn)
	if err != nil {
		logOut.Fatalf("connect MySQL: %v", err)
	}
	st := store.New(db)
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		logOut.Fatalf("migrate schema: %v", err)
	}
	logOut.Infow("record store online")

	//
	// ── 3.  Projection cache ───────────────────────────────────────────
	//
	rdb, err := cache.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		logOut.Fatalf("connect Redis: %v", err)
	}
	defer rdb.Close()
	logOut.Infow("projection cache online", "addr", cfg.Redis.Addr)

	//
	// ── 4.  Synchronizer and HTTP surface ──────────────────────────────
	//
	syn := sync.New(st, cache.New(rdb, cache.TTL), logOut)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", webhook.New(syn, cfg.Webhook.Secret, logOut).Router())

	srv := server.New(cfg.HTTP.ListenAddr, mux)

	//
	// ── 5.  Serve until signalled, then drain ──────────────────────────
	//
	errCh := make(chan error, 1)
	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		logOut.Fatalf("http server: %v", err)
	case <-ctx.Done():
	}

	logOut.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logOut.Errorw("shutdown", "err", err)
	}
	logOut.Infow("bye")
}
