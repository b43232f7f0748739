package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tripworks/costing-gpt/internal/model"
	"github.com/tripworks/costing-gpt/internal/store"
	"github.com/tripworks/costing-gpt/pkg/llm"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the costing API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env, cfg.Server.MaxUploadBytes, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(env *appEnv, maxUploadBytes int64, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Tenant-ID"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", handleUpload(env, maxUploadBytes))
		r.Get("/documents/{id}", handleGetDocument(env))
		r.Post("/chat", handleChat(env))
		r.Get("/tariffs", handleListTariffs(env))
		r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, env.Collector.Snapshot())
		})
	})

	return r
}

func tenantID(r *http.Request) string {
	if t := r.Header.Get("X-Tenant-ID"); t != "" {
		return t
	}
	return store.DefaultTenant
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func handleUpload(env *appEnv, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large or malformed form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file field is required")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !model.SupportedContentTypes[contentType] {
			writeError(w, http.StatusUnsupportedMediaType,
				fmt.Sprintf("unsupported content type: %s", contentType))
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read file")
			return
		}

		res, err := env.Pipeline.Process(r.Context(), tenantID(r), header.Filename, contentType, data)
		if err != nil {
			zap.L().Error("upload processing failed", zap.String("file", header.Filename), zap.Error(err))
			if res != nil && res.Document != nil {
				writeJSON(w, http.StatusUnprocessableEntity, res)
				return
			}
			writeError(w, http.StatusInternalServerError, "document processing failed")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleGetDocument(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := env.Store.GetDocument(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			zap.L().Error("get document", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		if doc == nil {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func handleChat(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []llm.Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Messages) == 0 {
			writeError(w, http.StatusBadRequest, "messages are required")
			return
		}

		reply, err := env.Chat.Chat(r.Context(), tenantID(r), req.Messages)
		if err != nil {
			zap.L().Error("chat failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "assistant unavailable")
			return
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

func handleListTariffs(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := env.Store.ListTariffs(r.Context(), store.TariffFilter{
			TenantID: tenantID(r),
			City:     r.URL.Query().Get("city"),
		})
		if err != nil {
			zap.L().Error("list tariffs", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "listing failed")
			return
		}
		if listings == nil {
			listings = []model.TariffListing{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"tariffs": listings})
	}
}
