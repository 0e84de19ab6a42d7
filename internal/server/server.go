// Package server exposes the show-control control/monitor API: JSON POST
// handlers for transport and layering operations, and websocket feeds for
// the preview/monitor topics published over internal/pubsub (spec §6).
//
// Grounded on the teacher's cmd/server/main.go router/middleware/CORS/
// graceful-shutdown wiring, with the gqlgen GraphQL surface replaced by a
// plain chi + gorilla/websocket JSON API (see DESIGN.md "dropped teacher
// dependencies").
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/castlight/showcore/internal/coordinator"
	"github.com/castlight/showcore/internal/model"
	"github.com/castlight/showcore/internal/pubsub"
)

// Server wires the coordinator and pubsub hub to an HTTP API.
type Server struct {
	httpServer *http.Server
	coord      *coordinator.Coordinator
	ps         *pubsub.PubSub
	project    *model.Project
	upgrader   websocket.Upgrader
}

// Config configures the HTTP listener.
type Config struct {
	Addr       string // e.g. ":4000"
	CORSOrigin string
	DevMode    bool
}

// New builds a Server around an already-wired Coordinator, a PubSub hub for
// its monitor feeds, and the loaded Project used to resolve scene/chaser IDs
// within a universe.
func New(cfg Config, coord *coordinator.Coordinator, ps *pubsub.PubSub, project *model.Project) *Server {
	s := &Server{
		coord:   coord,
		ps:      ps,
		project: project,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin, "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		Debug:            cfg.DevMode,
	})
	router.Use(corsMiddleware.Handler)

	s.routes(router)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(r chi.Router) {
	r.Get("/health", s.handleHealth)

	r.Route("/api/transport", func(r chi.Router) {
		r.Post("/play", s.handlePlay)
		r.Post("/pause", s.handlePause)
		r.Post("/stop", s.handleStop)
		r.Post("/seek", s.handleSeek)
	})

	r.Route("/api/universes/{universeID}", func(r chi.Router) {
		r.Post("/scenes/{sceneID}/activate", s.handleActivateScene)
		r.Post("/scenes/{sceneID}/deactivate", s.handleDeactivateScene)
		r.Post("/scenes/save", s.handleSaveScene)
		r.Post("/master-dimmer", s.handleSetMasterDimmer)
		r.Post("/faders", s.handleSetFader)
		r.Post("/chasers/{chaserID}/start", s.handleStartChaser)
		r.Post("/chasers/{chaserID}/stop", s.handleStopChaser)
	})

	r.Get("/ws/{topic}", s.handleWebsocket)
}

// Start begins serving HTTP in a background goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("showcore server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.coord.Play()
	writeJSON(w, http.StatusOK, map[string]string{"status": "playing"})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.coord.Pause()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.coord.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OffsetMs int64 `json:"offset_ms"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s.coord.Seek(time.Duration(body.OffsetMs) * time.Millisecond)
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeked"})
}

func (s *Server) handleActivateScene(w http.ResponseWriter, r *http.Request) {
	universeID := chi.URLParam(r, "universeID")
	sceneID := chi.URLParam(r, "sceneID")

	pu := s.project.FindUniverse(universeID)
	if pu == nil {
		http.Error(w, "universe not found", http.StatusNotFound)
		return
	}
	scene := pu.FindSceneByID(sceneID)
	if scene == nil {
		http.Error(w, "scene not found", http.StatusNotFound)
		return
	}

	var body struct {
		Master *int `json:"master"`
	}
	_ = decodeOptionalJSON(r, &body)
	master := uint8(255)
	if body.Master != nil {
		master = uint8(*body.Master)
	}

	s.coord.AddActiveScene(universeID, scene, master)
	writeJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

func (s *Server) handleDeactivateScene(w http.ResponseWriter, r *http.Request) {
	universeID := chi.URLParam(r, "universeID")
	sceneID := chi.URLParam(r, "sceneID")
	s.coord.RemoveActiveScene(universeID, sceneID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (s *Server) handleSaveScene(w http.ResponseWriter, r *http.Request) {
	universeID := chi.URLParam(r, "universeID")
	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.ID == "" {
		// Caller didn't name the snapshot; mint a stable ID so it can still
		// be recalled later (spec §4.11's "save as new scene" doesn't
		// require the client to pre-assign one).
		body.ID = uuid.NewString()
	}
	scene := s.coord.SaveActiveScenes(universeID, body.ID, body.Name)
	if scene == nil {
		http.Error(w, "universe not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

func (s *Server) handleSetMasterDimmer(w http.ResponseWriter, r *http.Request) {
	universeID := chi.URLParam(r, "universeID")
	var body struct {
		Level int `json:"level"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s.coord.SetMasterDimmer(universeID, uint8(body.Level))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSetFader writes a manual fader value through the universe's
// programmer, which implicitly stops any running chaser on it (spec §4.3,
// §4.4 "Manual override").
func (s *Server) handleSetFader(w http.ResponseWriter, r *http.Request) {
	universeID := chi.URLParam(r, "universeID")
	var body struct {
		InstanceID   string `json:"instance_id"`
		ChannelIndex int    `json:"channel_index"`
		Value        int    `json:"value"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s.coord.SetFader(universeID, body.InstanceID, body.ChannelIndex, uint8(body.Value))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartChaser(w http.ResponseWriter, r *http.Request) {
	universeID := chi.URLParam(r, "universeID")
	chaserID := chi.URLParam(r, "chaserID")

	pu := s.project.FindUniverse(universeID)
	if pu == nil {
		http.Error(w, "universe not found", http.StatusNotFound)
		return
	}
	ch := pu.FindChaserByID(chaserID)
	if ch == nil {
		http.Error(w, "chaser not found", http.StatusNotFound)
		return
	}
	s.coord.StartChaser(universeID, ch)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleStopChaser(w http.ResponseWriter, r *http.Request) {
	universeID := chi.URLParam(r, "universeID")
	chaserID := chi.URLParam(r, "chaserID")
	s.coord.StopChaser(universeID, chaserID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// handleWebsocket upgrades to a websocket and streams one pubsub topic,
// optionally scoped to a filter (e.g. a universe ID) via the ?filter= query
// param, until the client disconnects (spec §6: preview/monitor feeds).
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	topic := pubsub.Topic(chi.URLParam(r, "topic"))
	filter := r.URL.Query().Get("filter")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub := s.ps.Subscribe(topic, filter, 16)
	defer s.ps.Unsubscribe(sub)

	for msg := range sub.Channel {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		http.Error(w, "missing request body", http.StatusBadRequest)
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalJSON decodes a request body that may be empty (e.g. an
// activate-scene call with no master override). An empty or absent body is
// not an error.
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return nil
	}
	return nil
}
