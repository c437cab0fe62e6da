package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"taskchat-backend/internal/ai"
	"taskchat-backend/internal/assistant"
	"taskchat-backend/internal/auth"
	"taskchat-backend/internal/config"
	"taskchat-backend/internal/db"
	"taskchat-backend/internal/tasks"
)

// ----------------------
//        MAIN
// ----------------------

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Failed to load config: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, database, err := openTaskSource(ctx, cfg)
	if err != nil {
		log.Fatal("❌ Failed to connect task store: ", err)
	}
	if database != nil {
		defer database.Close()
	}

	if cfg.AIKey == "" {
		log.Println("[WARN] GROQ_API_KEY is empty; model calls will fail")
	}

	aiClient := ai.New(ai.Options{
		APIKey:  cfg.AIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		Retry:   ai.NewRetryPolicy(cfg.AIMaxAttempts, cfg.AIRetryDelay),
	})

	handler := assistant.New(aiClient, tasks.NewFetcher(source))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           buildHandler(cfg, handler),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		// no WriteTimeout: chat replies stream for as long as the model talks
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] shutdown: %v", err)
		}
	}()

	log.Printf("🚀 API server is running on %s (model=%s, store=%s)", srv.Addr, cfg.AIModel, cfg.StoreKind())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// openTaskSource picks the task store from config. A nil source is valid:
// chat then runs without task grounding.
func openTaskSource(ctx context.Context, cfg *config.Config) (tasks.Source, *sql.DB, error) {
	switch cfg.StoreKind() {
	case config.StoreREST:
		log.Println("✅ Using hosted task store at", cfg.StoreURL)
		return tasks.NewRESTStore(cfg.StoreURL, cfg.StoreKey, nil), nil, nil

	case config.StorePostgres:
		database, err := db.Connect(ctx, cfg.ConnString())
		if err != nil {
			return nil, nil, err
		}
		log.Println("✅ Connected to PostgreSQL!")
		return tasks.NewPostgresStore(database), database, nil

	default:
		log.Println("[WARN] no task store configured; chat runs without task context")
		return nil, nil, nil
	}
}

func buildHandler(cfg *config.Config, h *assistant.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authMW := auth.New([]byte(cfg.JWTSecret))
	if authMW.Enabled() {
		log.Println("🔒 JWT auth enabled for /api/ai/*")
	}
	h.Register(mux, authMW.Wrap)

	// CORS
	c := cors.New(corsOptions(cfg.CORSOrigins))

	// h2c lets streamed replies go out over cleartext HTTP/2 behind a proxy
	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}

// corsOptions allows credentials only for an explicit origin list. Auth is a
// bearer header, so a wildcard never needs cookies.
func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !slices.Contains(origins, "*"),
	}
}
