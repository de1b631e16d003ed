// Package ws streams board replies to browser tabs over WebSocket.
package ws

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"ai-board-of-directors/backend/internal/service"
	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/observability"
	pkgws "ai-board-of-directors/backend/pkg/ws"
)

// Submitter is satisfied by *service.ChatService
type Submitter interface {
	SubmitMessage(ctx context.Context, req service.SubmitRequest, opts ...service.SubmitOption) (*service.SubmitResult, error)
}

// Stagger spreads persona starts so replies do not land at once. Zero Max disables it.
type Stagger struct {
	Min time.Duration
	Max time.Duration
}

func (s Stagger) delay(int) time.Duration {
	if s.Max <= s.Min {
		return s.Min
	}
	return s.Min + rand.N(s.Max-s.Min)
}

// Hub tracks connected clients per user and owns the lifetime of in-flight submissions.
// Submissions are detached from both the socket and the hub context, so replies are still
// stored when the tab goes away or the server starts shutting down. The completion timeout
// bounds each of them.
type Hub struct {
	ctx     context.Context
	chat    Submitter
	stagger Stagger
	metrics *observability.Metrics
	log     *logger.Logger

	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}

	// closing is set under subMu before Run returns; no submission starts after it
	subMu    sync.Mutex
	closing  bool
	inflight sync.WaitGroup
	done     chan struct{}
}

// NewHub creates a hub bound to the server lifetime ctx
func NewHub(ctx context.Context, chat Submitter, stagger Stagger, metrics *observability.Metrics, log *logger.Logger) *Hub {
	if metrics == nil {
		metrics = observability.NoopMetrics()
	}
	return &Hub{
		ctx:        ctx,
		chat:       chat,
		stagger:    stagger,
		metrics:    metrics,
		log:        log,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uint]map[*Client]struct{}),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until the hub context ends, then closes every client
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
			h.metrics.SocketOpened(h.ctx)
			client.log.Debug("Client registered")

		case client := <-h.unregister:
			h.remove(client)

		case <-h.ctx.Done():
			h.subMu.Lock()
			h.closing = true
			h.subMu.Unlock()

			h.mu.Lock()
			all := h.clients
			h.clients = make(map[uint]map[*Client]struct{})
			h.mu.Unlock()
			for _, set := range all {
				for client := range set {
					client.close()
					h.metrics.SocketClosed(context.Background())
				}
			}
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	set, ok := h.clients[client.userID]
	_, registered := set[client]
	if ok && registered {
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, client.userID)
		}
	}
	h.mu.Unlock()

	client.close()
	if registered {
		h.metrics.SocketClosed(h.ctx)
		client.log.Debug("Client unregistered")
	}
}

// Wait blocks until Run has returned and every in-flight submission has finished
func (h *Hub) Wait() {
	<-h.done
	h.inflight.Wait()
}

// ConnectionCount returns the number of open sockets
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// UserConnections returns the number of open sockets for one user
func (h *Hub) UserConnections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// enqueue registers c unless the hub is already shutting down
func (h *Hub) enqueue(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

// submit runs one chat message in the background, tracked for graceful shutdown.
// It reports false once the hub is shutting down.
func (h *Hub) submit(c *Client, req service.SubmitRequest) bool {
	h.subMu.Lock()
	if h.closing || h.ctx.Err() != nil {
		h.subMu.Unlock()
		return false
	}
	h.inflight.Add(1)
	h.subMu.Unlock()

	go func() {
		defer h.inflight.Done()

		ctx := logger.NewContext(context.WithoutCancel(h.ctx), c.log)
		_, err := h.chat.SubmitMessage(ctx, req,
			service.WithObserver(&socketObserver{client: c}),
			service.WithStagger(h.stagger.delay),
			service.WithConcurrency(0),
		)
		if err != nil {
			c.log.Warn("Chat message rejected", "error", err.Error())
			c.push(pkgws.Failed(clientError(err)))
		}
	}()
	return true
}
