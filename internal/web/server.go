package web

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/rusenback/vitalviz/internal/engine"
	"github.com/rusenback/vitalviz/internal/export"
	"github.com/rusenback/vitalviz/internal/history"
	"github.com/rusenback/vitalviz/internal/model"
	"github.com/rusenback/vitalviz/internal/sysinfo"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// clientMessage is what a dashboard page may send over the socket.
type clientMessage struct {
	Type string `json:"type"`
}

// subscriber wraps one websocket connection with a write lock: the
// broadcast path and the per-connection read loop both write to it.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *subscriber) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *subscriber) sendJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.send(payload)
}

// Server streams ticks to websocket subscribers and answers REST reads.
// It is an ordinary engine consumer; the latest tick is kept around for
// the snapshot endpoints.
type Server struct {
	engine   *engine.Engine
	provider sysinfo.Provider
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*websocket.Conn]*subscriber
	latest      *engine.Tick
}

var _ engine.Consumer = (*Server)(nil)

// NewServer wires a server to a running engine and its provider.
func NewServer(eng *engine.Engine, provider sysinfo.Provider) *Server {
	return &Server{
		engine:      eng,
		provider:    provider,
		subscribers: make(map[*websocket.Conn]*subscriber),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/host", s.handleHost).Methods(http.MethodGet)
	r.HandleFunc("/api/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/processes", s.handleProcesses).Methods(http.MethodGet)
	r.HandleFunc("/api/export", s.handleExport).Methods(http.MethodGet)
	return r
}

// Run serves on addr until ctx is canceled, then drains connections.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Infof("web dashboard listening on http://%s", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.closeSubscribers()
	return nil
}

// OnTick stores the tick and broadcasts it to every subscriber. The
// payload is marshaled once, not per connection.
func (s *Server) OnTick(t engine.Tick) error {
	payload, err := json.Marshal(struct {
		Type string `json:"type"`
		engine.Tick
	}{Type: "tick", Tick: t})
	if err != nil {
		return fmt.Errorf("marshal tick: %w", err)
	}

	s.mu.Lock()
	s.latest = &t
	subs := make([]*subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if err := sub.send(payload); err != nil {
			log.Debugf("ws write failed, dropping subscriber: %v", err)
			s.removeSubscriber(sub.conn)
			sub.conn.Close()
		}
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	sub := s.addSubscriber(conn)
	defer s.removeSubscriber(conn)

	// Initial state so the page renders before the next tick lands.
	if err := sub.sendJSON(struct {
		Type    string            `json:"type"`
		History history.Snapshot  `json:"history"`
		Alerts  map[string]string `json:"alerts"`
	}{Type: "hello", History: s.engine.Snapshot(), Alerts: s.alertStates()}); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(sub, "invalid message")
			continue
		}

		switch msg.Type {
		case "reset_history":
			s.engine.ResetHistory()
			sub.sendJSON(map[string]string{"type": "history_reset"})

		case "snapshot":
			sub.sendJSON(struct {
				Type    string           `json:"type"`
				History history.Snapshot `json:"history"`
			}{Type: "snapshot", History: s.engine.Snapshot()})

		default:
			s.sendError(sub, "unknown message type: "+msg.Type)
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	info, err := s.provider.Host(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, info)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()

	resp := struct {
		Sample  *model.Sample     `json:"sample,omitempty"`
		Rates   *model.Rates      `json:"rates,omitempty"`
		History history.Snapshot  `json:"history"`
		Alerts  map[string]string `json:"alerts"`
	}{
		History: s.engine.Snapshot(),
		Alerts:  s.alertStates(),
	}
	if latest != nil {
		resp.Sample = &latest.Sample
		resp.Rates = latest.Rates
	}
	writeJSON(w, resp)
}

// handleExport downloads the in-memory history in the requested format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	snap := s.engine.Snapshot()
	name := "vitalviz-" + time.Now().Format("20060102-150405")

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
		if err := export.WriteSnapshotCSV(w, snap); err != nil {
			log.Debugf("write export: %v", err)
		}

	case "json":
		host, err := s.provider.Host(r.Context())
		if err != nil {
			log.Warnf("host info unavailable for export: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.json"`)
		if err := export.WriteSnapshotJSON(w, host, snap); err != nil {
			log.Debugf("write export: %v", err)
		}

	default:
		http.Error(w, fmt.Sprintf("unknown format %q (want csv or json)", format), http.StatusBadRequest)
	}
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()

	procs := []model.Process{}
	if latest != nil && latest.Sample.Processes != nil {
		procs = latest.Sample.Processes
	}
	writeJSON(w, procs)
}

func (s *Server) alertStates() map[string]string {
	states := make(map[string]string)
	for q, st := range s.engine.AlertStates() {
		states[q] = st.String()
	}
	return states
}

func (s *Server) addSubscriber(conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn}
	s.mu.Lock()
	s.subscribers[conn] = sub
	s.mu.Unlock()
	return sub
}

func (s *Server) removeSubscriber(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.subscribers, conn)
	s.mu.Unlock()
}

func (s *Server) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.subscribers {
		conn.Close()
		delete(s.subscribers, conn)
	}
}

func (s *Server) sendError(sub *subscriber, message string) {
	sub.sendJSON(map[string]string{"type": "error", "message": message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debugf("write response: %v", err)
	}
}
