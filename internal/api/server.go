// Package api exposes the server over HTTP: the command endpoint, file
// upload/download, the websocket upgrade, the status page and the health
// check.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"equion/internal/config"
	"equion/internal/db"
	"equion/internal/service"
	"equion/internal/ws"
)

type Server struct {
	cfg     *config.Config
	store   db.Store
	service *service.State
	hub     *ws.Hub
	router  chi.Router
}

func NewServer(cfg *config.Config, store db.Store, svc *service.State) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		service: svc,
		hub:     ws.NewHub(svc),
	}
	svc.SetSender(s.hub)
	go s.hub.Run()

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(corsMiddleware)

	r.Get("/", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Get("/api/v1/files/{id}", s.handleFile)
	r.Post("/api/v1/updateUserImage", s.handleUpdateUserImage)
	r.Post("/api/*", s.handleCommand)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Shutdown() {
	s.hub.Shutdown()
}
