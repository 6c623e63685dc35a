package server

import (
	"context"
	"dice-io-server/internal/domain"
	"dice-io-server/internal/engine"
	"dice-io-server/internal/network"
	"dice-io-server/pkg/api"
	"dice-io-server/pkg/logger"
	"dice-io-server/pkg/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocket settings
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	disconnectWait = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client sits between one websocket and the game. It only knows its
// connection id; the game resolves the player.
type Client struct {
	ID    string
	Game  *engine.Game
	Conn  *websocket.Conn
	Codec api.Codec
	Send  chan network.Message

	log *logrus.Entry
}

func NewClient(game *engine.Game, conn *websocket.Conn, codec api.Codec) *Client {
	id := utils.NewConnID()
	return &Client{
		ID:    id,
		Game:  game,
		Conn:  conn,
		Codec: codec,
		Send:  game.Hub.Register(id),
		log: logger.Component("ws").WithFields(logrus.Fields{
			"conn_id": id,
			"codec":   codec.Name(),
		}),
	}
}

func (s *Server) handleWS(c *gin.Context) {
	codec, err := api.CodecByName(c.Query("codec"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.WithError(err).Error("Upgrade error")
		return
	}

	client := NewClient(s.Game, conn, codec)
	client.log.Info("Client connected")

	go client.writePump()
	go client.readPump()
}

// readPump turns inbound frames into game commands.
func (c *Client) readPump() {
	defer func() {
		c.Game.Hub.Unregister(c.ID)
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
		ctx, cancel := context.WithTimeout(context.Background(), disconnectWait)
		defer cancel()
		if err := c.Game.Disconnect(ctx, c.ID); err != nil {
			c.log.WithError(err).Warn("Disconnect not delivered to the game")
		}
		c.log.Info("Client disconnected")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WS read error")
			}
			return
		}

		cmd, err := c.decode(frame)
		if err != nil {
			c.log.WithError(err).Warn("Dropping inbound message")
			continue
		}
		if err := c.Game.Submit(cmd); err != nil {
			c.log.WithError(err).Debug("Command not queued")
		}
	}
}

// decode validates one inbound frame and maps it to a command.
func (c *Client) decode(frame []byte) (domain.Command, error) {
	env, err := c.Codec.DecodeEnvelope(frame)
	if err != nil {
		return domain.Command{}, err
	}

	cmd := domain.Command{Action: domain.ParseAction(env.T), ConnID: c.ID}
	switch cmd.Action {
	case domain.ActionStart:
		p, err := api.DecodePayload[api.StartPayload](env)
		if err != nil {
			return cmd, err
		}
		cmd.Name = p.Name
	case domain.ActionDash:
		p, err := api.DecodePayload[api.DashPayload](env)
		if err != nil {
			return cmd, err
		}
		cmd.DashX, cmd.DashY = p.Vector.X, p.Vector.Y
	case domain.ActionDebugInspect:
		p, err := api.DecodePayload[api.DebugInspectPayload](env)
		if err != nil {
			return cmd, err
		}
		cmd.Query = p.Cmd
	default:
		// disconnect is implied by closing the socket, never sent.
		return cmd, errUnknownEvent(env.T)
	}
	return cmd, nil
}

// writePump encodes outbound messages with the client's codec and keeps
// the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	frameType := websocket.TextMessage
	if c.Codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case msg, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			frame, err := api.Encode(c.Codec, msg.Event, msg.Payload)
			if err != nil {
				c.log.WithError(err).WithField("event", msg.Event).Error("encode failed")
				continue
			}
			if err := c.Conn.WriteMessage(frameType, frame); err != nil {
				c.log.WithError(err).Debug("write message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
