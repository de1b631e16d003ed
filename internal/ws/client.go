package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/service"
	"ai-board-of-directors/backend/pkg/logger"
	pkgws "ai-board-of-directors/backend/pkg/ws"

	"github.com/gorilla/websocket"
)

const sendBuffer = 256

// Client is one browser tab. Only WritePump writes to conn.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uint
	log    *logger.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint, log *logger.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		log:    log,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// close is safe to call more than once. The send channel is never closed so late
// pushes from a running submission cannot panic.
func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// push queues an event for the writer. It gives up once the client is gone.
func (c *Client) push(ev pkgws.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.log.LogError(err, "Failed to encode event", "type", ev.Type)
		return
	}
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- data:
	case <-c.done:
	}
}

// ReadPump pumps messages from the websocket connection to the hub
func (c *Client) ReadPump() {
	defer c.hub.leave(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("WebSocket closed unexpectedly", "error", err.Error())
			}
			return
		}
		c.handle(raw)
	}
}

// WritePump pumps queued events to the websocket connection and keeps it alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			// Flush whatever is already queued before saying goodbye
			for {
				select {
				case data := <-c.send:
					if err := c.write(websocket.TextMessage, data); err != nil {
						return
					}
				default:
					_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// handle dispatches one inbound frame. Bad frames get a single error event and the socket stays open.
func (c *Client) handle(raw []byte) {
	var in pkgws.Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		c.push(pkgws.Failed("Invalid message format"))
		return
	}

	switch in.Type {
	case pkgws.TypePing:
		c.push(pkgws.Pong())
	case pkgws.TypeChatMessage:
		req, msg := c.submission(in)
		if msg != "" {
			c.push(pkgws.Failed(msg))
			return
		}
		if !c.hub.submit(c, req) {
			c.push(pkgws.Failed("Server is shutting down"))
		}
	default:
		c.push(pkgws.Failed("Unknown message type"))
	}
}

func (c *Client) submission(in pkgws.Inbound) (service.SubmitRequest, string) {
	if in.ConversationID == 0 || len(in.Personas()) == 0 {
		return service.SubmitRequest{}, "Missing required fields"
	}
	if in.Content == "" && in.FileURL == "" {
		return service.SubmitRequest{}, "Missing required fields"
	}
	if in.UserID != 0 && in.UserID != c.userID {
		return service.SubmitRequest{}, "User mismatch"
	}

	req := service.SubmitRequest{
		UserID:         c.userID,
		ConversationID: in.ConversationID,
		Content:        in.Content,
		Kind:           in.MessageType,
		PersonaIDs:     in.Personas(),
	}
	if in.FileURL != "" {
		req.Attachment = &models.Attachment{URL: in.FileURL}
	}
	return req, ""
}

// clientError hides internal failures behind a generic message
func clientError(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyPersonaSet),
		errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrInvalidMessageKind),
		errors.Is(err, service.ErrMissingAttachment),
		errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrBoardMemberNotFound):
		return err.Error()
	default:
		return "Failed to process message"
	}
}

// socketObserver turns fan-out lifecycle callbacks into pushes on one client
type socketObserver struct {
	client *Client
}

func (o *socketObserver) OnAccepted(msg models.Message) {
	o.client.push(pkgws.MessageSent(msg))
}

func (o *socketObserver) OnTyping(m models.BoardMemberSummary) {
	o.client.push(pkgws.PersonaTyping(m.ID, m.Name))
}

func (o *socketObserver) OnReply(r service.Reply) {
	o.client.push(pkgws.PersonaReply(r.Message, r.Member))
}

func (o *socketObserver) OnStopTyping(m models.BoardMemberSummary) {
	o.client.push(pkgws.PersonaStopTyping(m.ID))
}

func (o *socketObserver) OnFailure(m models.BoardMemberSummary, f service.Failure) {
	o.client.push(pkgws.PersonaError(m.ID, f.Reason))
}
