package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxCommandSize = 4096
)

// RoomAuthorizer decides whether a user may join a team room.
type RoomAuthorizer interface {
	CanJoinTeam(ctx context.Context, userID, teamID uint64) (bool, error)
}

// Server upgrades authenticated HTTP requests and runs the connection loops.
type Server struct {
	hub        *Hub
	authorizer RoomAuthorizer
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

func NewServer(hub *Hub, authorizer RoomAuthorizer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		hub:        hub,
		authorizer: authorizer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With("component", "realtime"),
	}
}

// Serve upgrades the request for an already authenticated user and blocks
// until the connection closes.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, userID uint64) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		s.logger.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := s.hub.Register(userID)
	s.logger.Info("websocket connected", "client_id", client.ID, "user_id", userID)

	done := make(chan struct{})
	go func() {
		s.writeLoop(conn, client)
		close(done)
	}()

	s.readLoop(r.Context(), conn, client)

	s.hub.Unregister(client)
	<-done
	conn.Close()
	s.logger.Info("websocket disconnected", "client_id", client.ID, "user_id", userID)
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	conn.SetReadLimit(maxCommandSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.Warn("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.logger.Debug("ignoring malformed command", "client_id", client.ID, "error", err)
			continue
		}
		s.HandleCommand(ctx, client, cmd)
	}
}

// HandleCommand applies a join or leave command. Rejected commands are logged
// and otherwise ignored.
func (s *Server) HandleCommand(ctx context.Context, client *Client, cmd Command) {
	room, teamID, err := cmd.Target(client.UserID)
	if err != nil {
		s.logger.Warn("rejected room command", "client_id", client.ID, "user_id", client.UserID, "type", cmd.Type, "error", err)
		return
	}

	if !cmd.Join() {
		s.hub.Leave(client, room)
		return
	}

	if teamID != 0 {
		ok, err := s.authorizer.CanJoinTeam(ctx, client.UserID, teamID)
		if err != nil {
			s.logger.Error("team room authorization failed", "user_id", client.UserID, "team_id", teamID, "error", err)
			return
		}
		if !ok {
			s.logger.Warn("user may not join team room", "user_id", client.UserID, "team_id", teamID)
			return
		}
	}

	s.hub.Join(client, room)
}

func (s *Server) writeLoop(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Warn("websocket write failed", "client_id", client.ID, "error", err)
				// unblock the read loop so the client gets unregistered
				conn.Close()
				s.drain(client)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				s.drain(client)
				return
			}
		}
	}
}

// drain discards queued frames until the hub closes the queue.
func (s *Server) drain(client *Client) {
	for range client.Send() {
	}
}
