package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[server] websocket upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("[server] close websocket: %v", err)
		}
	}()

	frames := s.hub.Connect()
	defer s.hub.Disconnect(frames)
	log.Printf("[server] websocket client %s connected", r.RemoteAddr)

	done := make(chan struct{})
	go readLoop(conn, done)
	s.writeLoop(conn, frames, done)
}

// readLoop services pongs and close frames. Client messages are ignored.
func readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[server] websocket read: %v", err)
			}
			return
		}
	}
}

func (s *Server) writeLoop(conn *websocket.Conn, frames <-chan []byte, done <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	first, err := encodeSnapshot(s.term)
	if err != nil {
		log.Printf("[server] encode frame: %v", err)
		return
	}
	if err := writeMessage(conn, websocket.TextMessage, first); err != nil {
		return
	}

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				_ = writeMessage(conn, websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"))
				return
			}
			if err := writeMessage(conn, websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ping.C:
			if err := writeMessage(conn, websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, kind int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(kind, data)
}
