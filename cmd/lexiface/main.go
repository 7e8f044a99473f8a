package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lexiface/internal/api"
	"lexiface/pkg/audio"
	"lexiface/pkg/config"
	"lexiface/pkg/coordinator"
	"lexiface/pkg/db"
	"lexiface/pkg/faceserver"
	"lexiface/pkg/logging"
	"lexiface/pkg/probe"
	"lexiface/pkg/store"
	"lexiface/pkg/tts/espeak"
	"lexiface/pkg/tts/sapi"
	"lexiface/pkg/version"
)

// historyRetention is how long utterance and face event rows are kept.
const historyRetention = 30 * 24 * time.Hour

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault("configs/lexiface.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/lexiface.yaml")
		return
	}

	if err := run(context.Background(), "configs/lexiface.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: service failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("LexiFace started", "version", version.Version)

	platform := sapi.New(cfg.TTS.VoiceID)
	if err := runProbes(ctx, cfg, platform); err != nil {
		return err
	}

	dbConn, st, err := initDB(cfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := dbConn.PruneHistory(historyRetention); err != nil {
		slog.Error("History pruning failed", "error", err)
	}

	manager := faceserver.NewManager(cfg.Face)
	player := audio.New(cfg.TTS.Volume)
	defer player.Shutdown()

	fallback := espeak.New(cfg.TTS.Espeak, player)

	coord := coordinator.New(cfg, manager, nil, platform, fallback, st)
	defer coord.StopServer(context.Background())

	return runServer(ctx, cfg, coord, st)
}

func initDB(cfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func runProbes(ctx context.Context, cfg *config.Config, platform *sapi.Backend) error {
	probes := []probe.Probe{
		probe.WritableDir("Data Directory", filepath.Dir(cfg.DB.Path), true),
		probe.Binary("Fallback TTS", cfg.TTS.Espeak.Binary, false),
		{
			Name: "Platform TTS",
			Check: func(context.Context) error {
				if !platform.Available() {
					return errors.New("speech API not reachable")
				}
				return nil
			},
			Critical: false,
		},
	}
	if cfg.Face.ServerDir != "" {
		probes = append(probes, probe.Dir("Face Server Directory", cfg.Face.ServerDir, false))
	}

	results := probe.Run(ctx, probes)
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, coord *coordinator.Coordinator, st store.Store) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address, cfg.Server.CORSOrigins,
		api.NewLifecycleHandler(coord, time.Duration(cfg.Face.StartGrace)),
		api.NewSpeechHandler(coord),
		api.NewFaceHandler(coord),
		api.NewHistoryHandler(st),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logging.Trace(logging.RequestLogger, "Request received", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
