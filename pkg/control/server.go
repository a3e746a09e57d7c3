// Package control exposes city selection over a websocket so other processes can drive
// the globe and follow what it shows.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sudorandom/paygate-globe/pkg/globe"
)

const (
	TypeSelect   = "select"
	TypeLocation = "location"
	TypeError    = "error"

	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// Message is the JSON frame exchanged in both directions.
type Message struct {
	Type    string  `json:"type"`
	Index   int     `json:"index"`
	Name    string  `json:"name,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
	Country string  `json:"country,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// LocationMessage describes the city now on screen.
func LocationMessage(index int, loc globe.Location) Message {
	return Message{
		Type:    TypeLocation,
		Index:   index,
		Name:    loc.Name,
		Lat:     loc.Lat,
		Lon:     loc.Lon,
		Country: loc.Country,
	}
}

type client struct {
	conn *websocket.Conn
	send chan Message
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Server accepts control connections. Selections are handed to the scene's loop through
// post; location changes are fanned out with Broadcast.
type Server struct {
	post     func(fn func())
	selectFn func(n int) bool
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *Message
	sent    uint64
}

// NewServer returns a server that runs selectFn(n) via post for every select request.
func NewServer(post func(fn func()), selectFn func(n int) bool) *Server {
	return &Server{
		post:     post,
		selectFn: selectFn,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[CONTROL] Upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan Message, sendBuffer)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.last != nil {
		c.send <- *s.last
	}
	n := len(s.clients)
	s.mu.Unlock()
	log.Printf("[CONTROL] Client %s connected (%d total)", conn.RemoteAddr(), n)

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer func() {
		s.drop(c)
		_ = c.conn.Close()
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[CONTROL] Read error: %v", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reply(c, Message{Type: TypeError, Error: fmt.Sprintf("bad message: %v", err)})
			continue
		}
		switch msg.Type {
		case TypeSelect:
			idx := msg.Index
			s.post(func() {
				before := s.broadcasts()
				if !s.selectFn(idx) {
					s.reply(c, Message{Type: TypeError, Index: idx, Error: "index out of range"})
					return
				}
				// Selecting the city already on screen changes nothing, so nobody was told.
				s.mu.Lock()
				last := s.last
				quiet := s.sent == before
				s.mu.Unlock()
				if quiet && last != nil {
					s.reply(c, *last)
				}
			})
		default:
			s.reply(c, Message{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Printf("[CONTROL] Write error: %v", err)
			_ = c.conn.Close()
			s.drop(c)
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// reply queues msg for one client without blocking. A client that cannot keep up is
// disconnected.
func (s *Server) reply(c *client, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Printf("[CONTROL] Dropping slow client %s", c.conn.RemoteAddr())
		delete(s.clients, c)
		c.close()
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
	}
}

// Broadcast tells every client that index is now on screen. It never blocks, so it is
// safe to call from the render loop. Call it once with the starting city so new clients
// are greeted before the first change.
func (s *Server) Broadcast(index int, loc globe.Location) {
	msg := LocationMessage(index, loc)
	s.mu.Lock()
	s.last = &msg
	s.sent++
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()
	for _, c := range targets {
		s.reply(c, msg)
	}
}

func (s *Server) broadcasts() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}

// ListenAndServe serves the control socket on addr at /ws until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Printf("[CONTROL] Listening on ws://%s/ws", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
