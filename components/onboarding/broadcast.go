package onboarding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

type subscriber struct {
	session string
	ch      chan Event
}

// BroadcastHook fans wizard events out to in-process subscribers. Transport
// subscribers follow exactly one session; SubscribeAll is for trusted
// in-process consumers. Payloads leave the hook without the charger PIN and
// the station password.
type BroadcastHook struct {
	mu      sync.RWMutex
	subs    map[int]subscriber
	next    int
	origins []string
}

// NewBroadcastHook creates a broadcast hook. allowedOrigins lists origins,
// besides the request host, that may open the websocket stream.
func NewBroadcastHook(allowedOrigins ...string) *BroadcastHook {
	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin = strings.TrimSuffix(strings.TrimSpace(origin), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}
	return &BroadcastHook{subs: make(map[int]subscriber), origins: origins}
}

// WizardUpdated satisfies EventHook. Slow subscribers miss events rather
// than block the wizard.
func (h *BroadcastHook) WizardUpdated(_ context.Context, event Event) error {
	event = redactEvent(event)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.session != "" && sub.session != event.SessionID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of events for sessionID and a cancel func.
func (h *BroadcastHook) Subscribe(sessionID string) (<-chan Event, func(), error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil, errMissingSessionID
	}
	ch, cancel := h.subscribe(sessionID)
	return ch, cancel, nil
}

// SubscribeAll follows every session.
func (h *BroadcastHook) SubscribeAll() (<-chan Event, func()) {
	return h.subscribe("")
}

func (h *BroadcastHook) subscribe(sessionID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, 16)
	h.subs[id] = subscriber{session: sessionID, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// CheckOrigin accepts requests without an Origin header, same-host origins
// and the configured allowed origins.
func (h *BroadcastHook) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	origin = strings.TrimSuffix(origin, "/")
	for _, allowed := range h.origins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func redactEvent(event Event) Event {
	if event.Payload == nil {
		return event
	}
	payload := *event.Payload
	payload.Charger.ImageRefs = append([]string(nil), payload.Charger.ImageRefs...)
	payload.Charger.PIN = ""
	payload.Network.StationPassword = ""
	event.Payload = &payload
	return event
}

// ServeWebSocket upgrades the request and streams the events of the session
// named by the "session" query parameter as JSON.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	events, cancel, err := h.Subscribe(r.URL.Query().Get("session"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cancel()

	upgrader := websocket.Upgrader{CheckOrigin: h.CheckOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams the events of one session as Server-Sent Events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	events, cancel, err := h.Subscribe(r.URL.Query().Get("session"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if _, err := w.Write([]byte("event: " + event.Kind + "\ndata: ")); err != nil {
				return
			}
			if err := encoder.Encode(event); err != nil {
				return
			}
			_, _ = w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
