package httpapi

import (
	"log"
	"net/http"
	"time"

	"club-site/internal/auth"
	"club-site/internal/content"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Frame is one push on a live feed: the full snapshot and whether the
// viewer may edit it.
type Frame[T any] struct {
	Collection string `json:"collection"`
	CanEdit    bool   `json:"canEdit"`
	Items      []T    `json:"items"`
}

func (a *api) live(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["collection"]
	switch name {
	case content.NewsCollection.Name:
		serveLive(w, r, name, a.NewsFeed, a.Auth.Registry(), a.Logger)
	case content.GalleriesCollection.Name:
		serveLive(w, r, name, a.GalleriesFeed, a.Auth.Registry(), a.Logger)
	case content.PlayersCollection.Name:
		serveLive(w, r, name, a.PlayersFeed, a.Auth.Registry(), a.Logger)
	case content.SponsorsCollection.Name:
		serveLive(w, r, name, a.SponsorsFeed, a.Auth.Registry(), a.Logger)
	default:
		writeMessage(w, http.StatusNotFound, "Colección desconocida.")
	}
}

// serveLive streams a frame for every snapshot of feed and for every login
// or logout of the connection's session, until the client goes away.
func serveLive[T any](w http.ResponseWriter, r *http.Request, name string, feed Feed[T], registry *auth.Registry, logger *log.Logger) {
	sid := auth.FromContext(r.Context()).ID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Printf("live: %s upgrade failed: %v", name, err)
		return
	}
	defer conn.Close()

	sessions, stopWatch := registry.Watch(sid)
	defer stopWatch()
	sub := feed.Subscribe()
	defer sub.Unsubscribe()

	// read after watching so a login in between is not missed
	canEdit := registry.Get(sid).Authenticated()
	items := feed.Current()
	select {
	case snap, ok := <-sub.C():
		if ok {
			items = snap
		}
	default:
	}

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func() bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if items == nil {
			items = []T{}
		}
		if err := conn.WriteJSON(Frame[T]{Collection: name, CanEdit: canEdit, Items: items}); err != nil {
			logger.Printf("live: %s write failed: %v", name, err)
			return false
		}
		return true
	}

	if !write() {
		return
	}
	for {
		select {
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			items = snap
			if !write() {
				return
			}
		case s := <-sessions:
			canEdit = s.Authenticated()
			if !write() {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// readPump discards client messages and keeps the read deadline moving on
// pongs. It closes done when the connection fails.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
