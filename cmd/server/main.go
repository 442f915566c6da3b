package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/gg"
	"github.com/gorilla/mux"

	"github.com/inamate/regionpaint/internal/auth"
	"github.com/inamate/regionpaint/internal/config"
	"github.com/inamate/regionpaint/internal/document"
	"github.com/inamate/regionpaint/internal/export"
	mw "github.com/inamate/regionpaint/internal/middleware"
	"github.com/inamate/regionpaint/internal/region"
	"github.com/inamate/regionpaint/internal/session"
	"github.com/inamate/regionpaint/internal/store"
)

const sampleName = "sample"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	gg.SetLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open document store", "error", err)
		os.Exit(1)
	}
	defer docs.Close()

	authService := auth.NewService(cfg.JWTSecret)

	hub := session.NewHub(ctx, logger)
	go hub.Run()

	documentHandler := document.NewHandler(docs)
	exportHandler := export.NewHandler(docs, cfg.FfmpegPath, export.RenderOptions{
		Pipeline:   cfg.Pipeline(),
		Background: cfg.Background,
		Logger:     logger,
	}, cfg.UpdateEvery)
	sessionHandler := session.NewHandler(hub, docs, authService, session.Defaults{
		Pipeline: cfg.Pipeline(),
		Delay:    cfg.Delay,
		Seed:     cfg.Seed,
	}, cfg.Origins())

	if err := startDemo(ctx, cfg, docs, sessionHandler); err != nil {
		slog.Warn("demo session not started", "error", err)
	}

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Documents
	r.HandleFunc("/documents", documentHandler.Upload).Methods("POST")
	r.HandleFunc("/documents", documentHandler.List).Methods("GET")
	r.HandleFunc("/documents/{documentId}", documentHandler.Get).Methods("GET")
	r.HandleFunc("/documents/{documentId}", documentHandler.Delete).Methods("DELETE")
	r.HandleFunc("/documents/{documentId}/stats", documentHandler.Stats).Methods("GET")
	r.HandleFunc("/documents/{documentId}/render.png", exportHandler.RenderPNG).Methods("GET")
	r.HandleFunc("/documents/{documentId}/export", exportHandler.Export).Methods("POST")

	// Sessions
	r.HandleFunc("/sessions", sessionHandler.Create).Methods("POST")
	r.HandleFunc("/sessions", sessionHandler.List).Methods("GET")
	r.HandleFunc("/sessions/{sessionId}", sessionHandler.Get).Methods("GET")

	// Control endpoints need a control token for the session
	r.Handle("/sessions/{sessionId}", authService.AuthMiddleware(http.HandlerFunc(sessionHandler.Delete))).Methods("DELETE")
	r.Handle("/sessions/{sessionId}/input", authService.AuthMiddleware(http.HandlerFunc(sessionHandler.Input))).Methods("POST")

	// WebSocket endpoint
	r.HandleFunc("/ws/session/{sessionId}", sessionHandler.WebSocket)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mw.CORS(cfg.Origins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop sessions first so websocket clients disconnect
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		slog.Info("using postgres document store")
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
	slog.Info("using file document store", "dir", cfg.DocumentDir)
	return store.NewFileStore(cfg.DocumentDir)
}

// startDemo plays the built-in sample so a fresh server has something to
// watch. The sample document is stored once and reused on later starts.
func startDemo(ctx context.Context, cfg *config.Config, docs store.Store, h *session.Handler) error {
	list, err := docs.List(ctx)
	if err != nil {
		return err
	}

	var doc *store.Document
	for _, s := range list {
		if s.Name == sampleName {
			doc, err = docs.Load(ctx, s.ID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			break
		}
	}
	if doc == nil {
		if doc, err = document.Create(ctx, docs, sampleName, region.Sample()); err != nil {
			return err
		}
	}

	resp, err := h.Start(doc, cfg.Pipeline(), cfg.Delay, cfg.Seed)
	if err != nil {
		return err
	}
	slog.Info("demo session started",
		"session", resp.ID,
		"document", doc.ID,
		"controlToken", resp.ControlToken,
		"viewToken", resp.ViewToken,
	)
	return nil
}
