// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/ciziko/internal/game"
	"github.com/jason-s-yu/ciziko/internal/middleware"
	"github.com/jason-s-yu/ciziko/internal/models"
	"github.com/sirupsen/logrus"
)

// Inbound frame types other than the relayed stroke events.
const (
	MsgJoinRoom    game.EventType = "join_room"
	MsgSwitchTeam  game.EventType = "switch_team"
	MsgToggleReady game.EventType = "toggle_ready"
	MsgWordVote    game.EventType = "word_vote"
	MsgGuessSubmit game.EventType = "guess_submit"
	MsgHeartbeat   game.EventType = "heartbeat"
	MsgLeaveRoom   game.EventType = "leave_room"
)

const (
	maxFrameBytes  = 32 << 10
	maxRoomCodeLen = 32
	maxNameLen     = 24
	defaultName    = "Player"
	maxThrottled   = 500
	pingInterval   = 30 * time.Second
	pingTimeout    = 15 * time.Second
	writeTimeout   = 5 * time.Second
)

type inboundFrame struct {
	Type    game.EventType  `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

type switchTeamPayload struct {
	Team models.Team `json:"team"`
}

type optionPayload struct {
	OptionIndex *int `json:"optionIndex"`
}

// GameWSHandler upgrades a request to a websocket and runs the connection until it closes.
// Every connection gets a fresh id that is also its player id.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: gs.OriginPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")
		c.SetReadLimit(maxFrameBytes)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := NewConnection(uuid.New(), cancel, gs.MessageRate, gs.MessageBurst, logger)
		gs.Hub.Register(conn)
		gs.touch(conn)
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		go writePump(ctx, c, conn, logger)
		readErr := readPump(ctx, c, gs, conn, logger)

		// ---- Cleanup after readPump exits ----
		if code := conn.SetRoom(""); code != "" {
			gs.Coordinator.Leave(code, conn.ID)
		}
		gs.Hub.Unregister(conn.ID)
		gs.forget(conn)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, readErr)
	}
}

// readPump decodes inbound frames and dispatches them until the connection closes.
// Returns nil on a normal close.
func readPump(ctx context.Context, c *websocket.Conn, gs *GameServer, conn *Connection, logger *logrus.Logger) error {
	throttled := 0
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		// Any frame counts as activity, even one that is throttled or malformed.
		gs.touch(conn)

		if !conn.Allow() {
			// Throttled frames are dropped silently; only a sustained flood closes the socket.
			throttled++
			if throttled >= maxThrottled {
				logger.Warnf("connection %s kept flooding, closing", conn.ID)
				c.Close(RateLimitedError, "too many messages")
				return errors.New("rate limited")
			}
			continue
		}
		throttled = 0

		if typ != websocket.MessageText {
			logger.Debugf("ignoring non-text frame from %s", conn.ID)
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(msg, &frame); err != nil || frame.Type == "" {
			conn.WriteError("invalid frame")
			continue
		}
		handleFrame(gs, conn, frame, logger)
	}
}

// handleFrame applies one decoded frame. Decoding problems are reported to the sender;
// everything else is left to the coordinator, which ignores intents that do not apply.
func handleFrame(gs *GameServer, conn *Connection, frame inboundFrame, logger *logrus.Logger) {
	coord := gs.Coordinator
	room := conn.Room()

	switch frame.Type {
	case MsgJoinRoom:
		var p joinRoomPayload
		if err := decodePayload(frame.Payload, &p); err != nil {
			conn.WriteError("invalid join_room payload")
			return
		}
		code := strings.TrimSpace(p.RoomCode)
		if code == "" || utf8.RuneCountInString(code) > maxRoomCodeLen {
			conn.WriteError("roomCode must be 1-32 characters")
			return
		}
		// A connection sits in at most one room.
		if prev := conn.SetRoom(code); prev != "" && prev != code {
			coord.Leave(prev, conn.ID)
		}
		coord.Join(code, conn.ID, cleanName(p.Name))

	case MsgSwitchTeam:
		var p switchTeamPayload
		if err := decodePayload(frame.Payload, &p); err != nil {
			conn.WriteError("invalid switch_team payload")
			return
		}
		coord.SwitchTeam(room, conn.ID, p.Team)

	case MsgToggleReady:
		coord.ToggleReady(room, conn.ID)

	case MsgWordVote, MsgGuessSubmit:
		var p optionPayload
		if err := decodePayload(frame.Payload, &p); err != nil || p.OptionIndex == nil {
			conn.WriteError(fmt.Sprintf("invalid %s payload", frame.Type))
			return
		}
		if frame.Type == MsgWordVote {
			coord.CastWordVote(room, conn.ID, *p.OptionIndex)
		} else {
			coord.SubmitGuess(room, conn.ID, *p.OptionIndex)
		}

	case MsgHeartbeat:
		// activity already recorded

	case MsgLeaveRoom:
		if prev := conn.SetRoom(""); prev != "" {
			coord.Leave(prev, conn.ID)
		}

	default:
		// Stroke payloads stay raw; the coordinator only checks who may draw.
		if game.IsStrokeEvent(frame.Type) {
			coord.RelayStroke(room, conn.ID, frame.Type, frame.Payload)
			return
		}
		logger.Debugf("unknown frame type %q from %s", frame.Type, conn.ID)
		conn.WriteError(fmt.Sprintf("unknown type: %s", frame.Type))
	}
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	return json.Unmarshal(raw, v)
}

// cleanName trims a display name and caps its length.
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	return name
}

// writePump drains the connection's outbox onto the socket and keeps it alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *Connection, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer conn.Cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-conn.OutChan:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("failed to marshal %s for %s: %v", ev.Type, conn.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for %s: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping to %s failed: %v, assuming disconnect", conn.ID, err)
				return
			}
		}
	}
}
