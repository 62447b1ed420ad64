package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/nwatts/liftlog/internal/middleware"
	"github.com/nwatts/liftlog/internal/relay"
)

// ChatWSHandler upgrades to a websocket speaking the "chat" subprotocol and
// registers the connection with the relay hub. A user may hold several
// connections at once; each gets every message addressed to that user.
func (s *Server) ChatWSHandler(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	userID, err := resolvePrincipal(r)
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"chat"},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != "chat" {
		c.Close(websocket.StatusPolicyViolation, "client must speak the chat subprotocol")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	conn := relay.NewConn(userID, cancel)
	s.Relay.Hub.Register(conn)
	middleware.LogWebSocketConnect(s.Logger, remoteAddr, r.URL.Path)

	go s.chatWritePump(ctx, c, conn)

	readErr := s.chatReadPump(ctx, c, conn)

	s.Relay.Hub.Unregister(conn)
	middleware.LogWebSocketDisconnect(s.Logger, remoteAddr, r.URL.Path, readErr)
}

// chatReadPump blocks reading client events until the connection closes.
func (s *Server) chatReadPump(ctx context.Context, c *websocket.Conn, conn *relay.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		typ, raw, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}

		if typ != websocket.MessageText {
			s.Logger.Warnf("chat: non-text message type %d from user %v, ignoring", typ, conn.UserID)
			continue
		}

		s.Relay.HandleEvent(ctx, conn, raw)
	}
}

// chatWritePump drains the connection's outbound channel and pings on a
// ticker. Either failure tears the connection down; the read pump observes
// the closure.
func (s *Server) chatWritePump(ctx context.Context, c *websocket.Conn, conn *relay.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer c.Close(websocket.StatusGoingAway, "write pump stopping")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.Logger.Warnf("chat: failed to marshal outgoing msg for user %v: %v", conn.UserID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.Logger.Warnf("chat: write failed for user %v: %v", conn.UserID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				s.Logger.Warnf("chat: ping failed for user %v, assuming disconnect: %v", conn.UserID, err)
				return
			}
		}
	}
}
