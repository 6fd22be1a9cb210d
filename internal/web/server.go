// Package web serves the local JSON API that presentation layers consume.
// The server is one of the interchangeable frontends of condanest: it
// exposes the same plain records and typed failures the CLI renders, over
// loopback HTTP, plus a websocket stream of operation progress and
// environment change notifications. No business logic lives here; every
// handler delegates to the conda client, the janitor, or the store.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/condanest/condanest/internal/conda"
	"github.com/condanest/condanest/internal/janitor"
	"github.com/condanest/condanest/internal/store"
)

// Server holds the router and the backend collaborators handlers delegate to.
type Server struct {
	Router *chi.Mux

	session *conda.Session
	janitor *janitor.Janitor
	store   *store.Store
	hub     *Hub
	log     zerolog.Logger
}

// New creates a Server wired to the given collaborators.
func New(session *conda.Session, jan *janitor.Janitor, st *store.Store, hub *Hub, log zerolog.Logger) *Server {
	s := &Server{
		Router:  chi.NewRouter(),
		session: session,
		janitor: jan,
		store:   st,
		hub:     hub,
		log:     log,
	}
	s.mountHandlers()
	return s
}

func (s *Server) mountHandlers() {
	s.Router.Use(s.requestLogger)
	s.Router.Use(s.panicHandler)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length"},
		MaxAge:         300,
	}))

	s.Router.Route("/api", func(r chi.Router) {
		r.Get("/backend", s.handleBackend)
		r.Get("/envs", s.handleListEnvs)
		r.Post("/envs", s.handleCreateEnv)
		r.Route("/envs/{name}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteEnv)
			r.Get("/packages", s.handleListPackages)
			r.Post("/clone", s.handleCloneEnv)
			r.Post("/rename", s.handleRenameEnv)
			r.Post("/export", s.handleExportEnv)
			r.Post("/packages/install", s.handleInstallPackages)
			r.Post("/packages/remove", s.handleRemovePackages)
			r.Post("/packages/update", s.handleUpdatePackages)
		})
		r.Get("/packages/search", s.handleSearchPackages)
		r.Get("/channels", s.handleGetChannels)
		r.Put("/channels", s.handleSetChannels)
		r.Get("/disk-usage", s.handleDiskUsage)
		r.Post("/clean/estimate", s.handleDiskUsage)
		r.Post("/clean", s.handleClean)
		r.Get("/history", s.handleHistory)
		r.Get("/events", s.hub.HandleWS)
	})
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("web server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
