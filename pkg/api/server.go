// pkg/api/server.go

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpx "github.com/meshmon/meshmon/pkg/http"
)

const defaultHistoryLimit = 100

// APIServer serves the read-only dashboard API. All state lives behind
// the DataProvider; the server itself is stateless apart from the
// websocket hub.
type APIServer struct {
	provider   DataProvider
	hub        *Hub
	router     *mux.Router
	httpServer *http.Server
}

// NewAPIServer builds the router around a data provider.
func NewAPIServer(provider DataProvider) *APIServer {
	s := &APIServer{
		provider: provider,
		hub:      NewHub(),
		router:   mux.NewRouter(),
	}
	s.setupRoutes()

	return s
}

// Hub exposes the broadcast hub so the refresh cycle can push summaries.
func (s *APIServer) Hub() *Hub {
	return s.hub
}

// Router exposes the handler for tests.
func (s *APIServer) Router() http.Handler {
	return s.router
}

func (s *APIServer) setupRoutes() {
	s.router.Use(httpx.CommonMiddleware)

	s.router.HandleFunc("/api/nodes", s.getNodes).Methods("GET")
	s.router.HandleFunc("/api/nodes/{id}", s.getNode).Methods("GET")
	s.router.HandleFunc("/api/nodes/{id}/history", s.getNodeHistory).Methods("GET")
	s.router.HandleFunc("/api/nodes/{id}/live", s.getNodeLive).Methods("GET")
	s.router.HandleFunc("/api/network/history", s.getNetworkHistory).Methods("GET")
	s.router.HandleFunc("/api/regions/{country}/history", s.getRegionHistory).Methods("GET")
	s.router.HandleFunc("/api/status", s.getStatus).Methods("GET")
	s.router.Handle("/api/live", s.hub).Methods("GET")
}

func (s *APIServer) getNodes(w http.ResponseWriter, _ *http.Request) {
	nodes, err := s.provider.GetAllNodes()
	if err != nil {
		log.Printf("Error listing nodes: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, nodes)
}

func (s *APIServer) getNode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	node, err := s.provider.GetNode(vars["id"])
	if err != nil {
		log.Printf("Error getting node %s: %v", vars["id"], err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	if node == nil {
		http.Error(w, "Node not found", http.StatusNotFound)
		return
	}

	writeJSON(w, node)
}

func (s *APIServer) getNodeHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	start, end, limit, err := parseRangeQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	points, err := s.provider.GetNodeHistory(vars["id"], start, end, limit)
	if err != nil {
		log.Printf("Error getting history for node %s: %v", vars["id"], err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, points)
}

func (s *APIServer) getNodeLive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	writeJSON(w, s.provider.GetLivePoints(vars["id"]))
}

func (s *APIServer) getNetworkHistory(w http.ResponseWriter, r *http.Request) {
	start, end, limit, err := parseRangeQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snaps, err := s.provider.GetNetworkHistory(start, end, limit)
	if err != nil {
		log.Printf("Error getting network history: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, snaps)
}

func (s *APIServer) getRegionHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	start, end, _, err := parseRangeQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	countryCode := r.URL.Query().Get("country_code")

	snaps, err := s.provider.GetRegionHistory(r.Context(), vars["country"], countryCode, start, end)
	if err != nil {
		log.Printf("Error getting region history for %s: %v", vars["country"], err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, snaps)
}

func (s *APIServer) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.provider.Status())
}

// Start runs the HTTP server until Shutdown.
func (s *APIServer) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown stops the HTTP server and disconnects websocket clients.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.hub.Close()

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// parseRangeQuery reads the optional start/end (RFC3339) and limit query
// parameters shared by the history endpoints.
func parseRangeQuery(r *http.Request) (start, end time.Time, limit int, err error) {
	q := r.URL.Query()
	limit = defaultHistoryLimit

	if v := q.Get("start"); v != "" {
		start, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, 0, errors.New("invalid start time, want RFC3339")
		}
	}

	if v := q.Get("end"); v != "" {
		end, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, 0, errors.New("invalid end time, want RFC3339")
		}
	}

	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return time.Time{}, time.Time{}, 0, errors.New("invalid limit")
		}
	}

	return start, end, limit, nil
}
