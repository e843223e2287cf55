// Package httpapi exposes the thin debug-UI surface: reading/writing live
// tuning parameters and tailing detection ticks over Server-Sent Events.
// This mirrors the admin-route shape of the teacher's serial debug UI
// (send-command / tail), but registers plain stdlib handlers rather than
// tsweb.Debugger: tsweb is a Tailscale-coupled mux wrapper tied to
// multi-host/tailnet deployment, which SPEC_FULL.md §2.1 leaves unwired
// for this single-robot on-board service; see DESIGN.md.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/fieldcam/pitchvision/internal/config"
)

// DetectionTick is one published sample the /api/frames SSE stream fans
// out to subscribers.
type DetectionTick struct {
	Tick       string  `json:"tick"`
	BallOk     bool    `json:"ball_ok"`
	Bearing    float64 `json:"bearing,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
}

// ParamStore is the live, mutable tuning configuration the HTTP handlers
// read and write, guarded by a mutex so pipeline workers and HTTP requests
// can access it concurrently.
type ParamStore struct {
	mu  sync.RWMutex
	cfg *config.TuningConfig
}

// NewParamStore wraps an initial config.
func NewParamStore(initial *config.TuningConfig) *ParamStore {
	return &ParamStore{cfg: initial}
}

// Get returns a copy of the current config.
func (s *ParamStore) Get() config.TuningConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Update replaces the whole stored config with patch; fields are not merged,
// so a field left unset in patch reverts to its default (the client sends
// the full desired set, same contract as the reference endpoint this
// mirrors).
func (s *ParamStore) Update(patch *config.TuningConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = patch
}

// Broadcaster fans a DetectionTick out to every subscribed SSE connection,
// dropping the tick for any subscriber whose channel is full rather than
// blocking the publisher (slow readers degrade, they don't stall the
// pipeline).
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan DetectionTick
	next int
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan DetectionTick)}
}

// Subscribe registers a new listener and returns its id and channel.
func (b *Broadcaster) Subscribe() (int, chan DetectionTick) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan DetectionTick, 8)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a listener's channel.
func (b *Broadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Publish fans out tick to every current subscriber.
func (b *Broadcaster) Publish(tick DetectionTick) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- tick:
		default:
		}
	}
}

// Server is the debug-UI HTTP surface: GET/PUT /api/params and
// GET /api/frames (SSE tail of detection ticks).
type Server struct {
	Params      *ParamStore
	Broadcaster *Broadcaster
}

// NewServer creates a Server around the given ParamStore and Broadcaster.
func NewServer(params *ParamStore, broadcaster *Broadcaster) *Server {
	return &Server{Params: params, Broadcaster: broadcaster}
}

// Mux builds the http.ServeMux exposing this server's routes.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/frames", s.handleFrames)
	return mux
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg := s.Params.Get()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)
	case http.MethodPut:
		var cfg config.TuningConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, fmt.Sprintf("invalid params body: %v", err), http.StatusBadRequest)
			return
		}
		if err := cfg.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Params.Update(&cfg)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch := s.Broadcaster.Subscribe()
	defer s.Broadcaster.Unsubscribe(id)

	fmt.Fprint(w, ": ping\n\n")
	flusher.Flush()

	for {
		select {
		case tick, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(tick)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
