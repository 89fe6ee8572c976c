package client

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"ticketgate/waitroom-server/pkg/config"
	"ticketgate/waitroom-server/pkg/msg"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time to wait before force close on connection.
	closeGracePeriod = 10 * time.Second
)

// Client is a middleman between one websocket subscriber and the hub.
// Subscribers are read-only: they receive queue status snapshots and
// send nothing but pongs.
type Client struct {
	id      string
	queueId string

	conn *websocket.Conn

	// Buffered channel of outbound messages. The hub drops the client
	// when it stops draining this.
	sendWsMessage chan *msg.WsMessage

	close     chan struct{}
	closeOnce sync.Once

	hub *Hub
}

func NewClient(queueId string, conn *websocket.Conn, hub *Hub) (*Client, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	return &Client{
		id:            id,
		queueId:       queueId,
		conn:          conn,
		sendWsMessage: make(chan *msg.WsMessage, 64),
		close:         make(chan struct{}),
		hub:           hub,
	}, nil
}

func (c *Client) Run() {
	c.hub.register <- c
	go c.readPump()
	go c.writePump()
}

// TryClose is safe to call from both pumps and the hub.
func (c *Client) TryClose() {
	c.closeOnce.Do(func() {
		close(c.close)
	})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	pingInterval := time.Duration(*config.CFG.PingIntervalSeconds) * time.Second
	pongWait := pingInterval * 5 / 2

	// Heartbeat. Close connection if client does not respond to ping
	// for too long.
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Subscribers have nothing to say; reading only services
		// control frames and detects the peer going away.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	pingInterval := time.Duration(*config.CFG.PingIntervalSeconds) * time.Second
	pingTicker := time.NewTicker(pingInterval)

	defer func() {
		pingTicker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case wsMessage := <-c.sendWsMessage:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(wsMessage); err != nil {
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.close:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			time.Sleep(closeGracePeriod)
			return
		}
	}
}
