package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorgonia/reversi/game"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const pingInterval = 30 * time.Second

// ply is the message sent to spectators after every move.
type ply struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Epoch  int     `json:"epoch"`
	Game   int     `json:"game"`
	Player int     `json:"player"` // 1 is black, 2 is white
	Move   int     `json:"move"`   // row major cell, -1 is a pass
	Board  []int   `json:"board"`  // 0 empty, 1 black, 2 white
	Black  float64 `json:"black"`
	White  float64 `json:"white"`
	Ended  bool    `json:"ended"`
	Winner int     `json:"winner,omitempty"`
}

// Hub is an OutputEncoder that broadcasts every ply to the connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	log     zerolog.Logger

	upgrader websocket.Upgrader
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:  make(map[chan []byte]struct{}),
		log:      logger,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Encode a game
func (h *Hub) Encode(ms game.MetaState) error {
	g := ms.State()
	last := g.LastMove()
	board := g.Board()
	msg := ply{
		Type:   "ply",
		Name:   ms.Name(),
		Epoch:  ms.Epoch(),
		Game:   ms.GameNumber(),
		Player: int(last.Player),
		Move:   int(last.Single),
		Board:  make([]int, len(board)),
		Black:  ms.Score(game.Player(game.Black)),
		White:  ms.Score(game.Player(game.White)),
	}
	for i, c := range board {
		msg.Board[i] = int(c)
	}
	if ended, winner := g.Ended(); ended {
		msg.Ended = true
		msg.Winner = int(winner)
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.broadcast(b)
	return nil
}

// Flush does nothing. Plies are sent as they are encoded.
func (h *Hub) Flush() error { return nil }

// Clients returns the number of connected spectators.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast drops the message for clients that are too slow to keep up.
func (h *Hub) broadcast(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for send := range h.clients {
		select {
		case send <- b:
		default:
			h.log.Warn().Msg("spectator is lagging. Dropping ply")
		}
	}
}

func (h *Hub) register(send chan []byte) {
	h.mu.Lock()
	h.clients[send] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(send chan []byte) {
	h.mu.Lock()
	if _, ok := h.clients[send]; ok {
		delete(h.clients, send)
		close(send)
	}
	h.mu.Unlock()
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("upgrade")
		return
	}
	send := make(chan []byte, 64)
	h.register(send)
	h.log.Info().Str("remote", r.RemoteAddr).Msg("spectator connected")

	go func() {
		defer conn.Close()
		if err := writeWithHeartbeat(conn, send); err != nil {
			h.log.Debug().Err(err).Msg("write")
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.unregister(send)
			h.log.Info().Str("remote", r.RemoteAddr).Msg("spectator left")
			return
		}
	}
}

func writeWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return err
			}
		}
	}
}
