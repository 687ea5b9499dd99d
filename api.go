package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/gorilla/mux"
)

// ClientInfo is the read-model of a managed client published to API
// consumers.
type ClientInfo struct {
	ID       uint32   `json:"id"`
	Title    string   `json:"title"`
	Instance string   `json:"instance"`
	Class    string   `json:"class"`
	Tags     []string `json:"tags"`
	X        int      `json:"x"`
	Y        int      `json:"y"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	State    uint32   `json:"state"`
	Focused  bool     `json:"focused"`
}

// Snapshot is the manager state the API serves. It is rebuilt on the
// event loop thread and swapped in whole, so handlers never touch
// live manager state.
type Snapshot struct {
	Clients []ClientInfo `json:"clients"`
	Screens []Rect       `json:"screens"`
}

// Event is one entry of the websocket event stream.
type Event struct {
	Kind   string      `json:"kind"`
	Detail interface{} `json:"detail"`
}

// APIServer is the HTTP/websocket control surface. Mutations go back
// through the X connection as control messages so the single-threaded
// manager loop applies them.
type APIServer struct {
	wm   *WM
	log  *slog.Logger
	addr string

	server *http.Server

	mu       sync.RWMutex
	snapshot Snapshot

	subsMu sync.Mutex
	subs   map[chan Event]struct{}
}

func NewAPIServer(wm *WM, addr string, log *slog.Logger) *APIServer {
	as := &APIServer{
		wm:   wm,
		log:  log.With("sub", "api"),
		addr: addr,
		subs: make(map[chan Event]struct{}),
	}

	router := mux.NewRouter()
	router.HandleFunc("/clients/", as.handleClients).Methods("GET")
	router.HandleFunc("/clients/{id:[0-9]+}", as.handleClient).Methods("GET", "DELETE")
	router.HandleFunc("/screens/", as.handleScreens).Methods("GET")
	router.HandleFunc("/tagset", as.handleTagset).Methods("POST")
	router.HandleFunc("/events", makeWSHandler(as.serveEvents))
	router.PathPrefix("/").Handler(http.NotFoundHandler())

	as.server = &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    5 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return as
}

// String names the service for the supervisor.
func (as *APIServer) String() string { return "api@" + as.addr }

// Serve runs the HTTP server under supervision until ctx is done.
func (as *APIServer) Serve(ctx context.Context) error {
	errC := make(chan error, 1)
	go func() { errC <- as.server.ListenAndServe() }()
	as.log.Info("listening", "addr", as.addr)
	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		as.server.Shutdown(shutCtx)
		return ctx.Err()
	case err := <-errC:
		return err
	}
}

// Publish swaps in a fresh snapshot; called on the event loop thread.
func (as *APIServer) Publish(s Snapshot) {
	as.mu.Lock()
	as.snapshot = s
	as.mu.Unlock()
}

// Broadcast fans an event out to every websocket subscriber without
// blocking the event loop.
func (as *APIServer) Broadcast(ev Event) {
	as.subsMu.Lock()
	for ch := range as.subs {
		select {
		case ch <- ev:
		default: // slow consumer drops events
		}
	}
	as.subsMu.Unlock()
}

func (as *APIServer) subscribe() chan Event {
	ch := make(chan Event, 64)
	as.subsMu.Lock()
	as.subs[ch] = struct{}{}
	as.subsMu.Unlock()
	return ch
}

func (as *APIServer) unsubscribe(ch chan Event) {
	as.subsMu.Lock()
	delete(as.subs, ch)
	as.subsMu.Unlock()
}

func (as *APIServer) current() Snapshot {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.snapshot
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (as *APIServer) handleClients(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"items": as.current().Clients,
	})
}

func (as *APIServer) handleClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		jsonResponse(w, http.StatusNotFound, nil)
		return
	}
	for _, info := range as.current().Clients {
		if info.ID != uint32(id) {
			continue
		}
		switch r.Method {
		case "DELETE":
			as.sendDelete(xproto.Window(id))
			jsonResponse(w, http.StatusOK, nil)
		default:
			jsonResponse(w, http.StatusOK, map[string]interface{}{"item": info})
		}
		return
	}
	jsonResponse(w, http.StatusNotFound, nil)
}

// sendDelete posts a WM_DELETE_WINDOW through the shared connection;
// xgb serializes requests, and the manager sees the effects as
// ordinary events.
func (as *APIServer) sendDelete(win xproto.Window) {
	as.wm.sendProtocolMessage(win, as.wm.atomWMDeleteWindow, 0)
}

func (as *APIServer) handleScreens(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"items": as.current().Screens,
	})
}

func (as *APIServer) handleTagset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Spec string `json:"spec"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonResponse(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if _, err := ParseTagSpec(body.Spec); err != nil {
		jsonResponse(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	// The same property-plus-message path external controllers use;
	// the manager loop picks it up as a client message.
	as.wm.props.SetUTF8String(as.wm.root, "_DIM_TAGSET_EXPRESSION", body.Spec)
	as.wm.sendRootMessage(as.wm.atomDimTagsetUpdate, 0)
	jsonResponse(w, http.StatusOK, map[string]string{"spec": body.Spec})
}

// buildSnapshot runs on the event loop thread after each event.
func (wm *WM) buildSnapshot() Snapshot {
	s := Snapshot{Screens: append([]Rect(nil), wm.crtcs...)}
	for _, c := range wm.clients {
		tags := make([]string, 0, len(c.Tags))
		for _, tag := range c.Tags {
			if name, err := wm.atoms.Name(tag); err == nil {
				tags = append(tags, name)
			}
		}
		s.Clients = append(s.Clients, ClientInfo{
			ID:       uint32(c.Window),
			Title:    c.Title,
			Instance: c.Class.Instance,
			Class:    c.Class.Class,
			Tags:     tags,
			X:        c.Geom.X,
			Y:        c.Geom.Y,
			Width:    c.Geom.Width,
			Height:   c.Geom.Height,
			State:    c.WMState,
			Focused:  wm.focused == c,
		})
	}
	return s
}
