package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/core/taml"
	"github.com/suin/go-taml/internal/logging"
	"github.com/suin/go-taml/internal/server"
	"github.com/suin/go-taml/internal/validation"
)

var (
	// GlobalHub is the shared WebSocket hub tracking preview connections.
	GlobalHub *Hub

	// GlobalWebSocketRateLimiter is the shared rate limiter for WebSocket messages.
	GlobalWebSocketRateLimiter *WebSocketRateLimiter
)

// PreviewRequest is one frame sent by a live-preview client: markup plus
// an optional renderer name.
type PreviewRequest struct {
	Source   string `json:"source"`
	Renderer string `json:"renderer,omitempty"` // default "ansi"
}

// PreviewResponse is the server's reply to one preview frame: either the
// rendered output or the positioned diagnostic that stopped the parse.
type PreviewResponse struct {
	Type      string    `json:"type"` // "render" or "error"
	Renderer  string    `json:"renderer,omitempty"`
	Output    string    `json:"output,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks active WebSocket connections. Registration runs through Run
// so connection counts stay consistent without per-handler locking.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop to handle client registration.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", count)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WebSocketSecurityConfig holds WebSocket-specific security configuration.
type WebSocketSecurityConfig struct {
	// AllowedOrigins is a list of allowed origin patterns.
	// Use "*" to allow all origins (not recommended for production).
	// Use specific domains like "https://example.com" for production.
	AllowedOrigins []string

	// MaxMessageRate is the maximum number of messages per second per client.
	MaxMessageRate int

	// MaxMessageSize is the maximum message size in bytes.
	MaxMessageSize int64

	// RequireAuth indicates whether authentication is required for WebSocket connections.
	RequireAuth bool

	// AuthConfig is the authentication configuration to use.
	AuthConfig AuthConfig
}

// DefaultWebSocketSecurityConfig returns a secure default configuration.
func DefaultWebSocketSecurityConfig() WebSocketSecurityConfig {
	return WebSocketSecurityConfig{
		AllowedOrigins: []string{"*"}, // Override in production
		MaxMessageRate: 10,            // 10 messages per second
		MaxMessageSize: 1 << 20,       // 1MB per preview frame
		RequireAuth:    false,
	}
}

// WebSocketRateLimiter tracks message rates per client.
type WebSocketRateLimiter struct {
	clients map[*Client]*messageRateBucket
	mu      sync.RWMutex
}

// messageRateBucket implements a token bucket for message rate limiting.
type messageRateBucket struct {
	tokens         float64
	capacity       float64
	refillRate     float64 // tokens per second
	lastRefillTime time.Time
	mu             sync.Mutex
}

// NewWebSocketRateLimiter creates a new WebSocket rate limiter.
func NewWebSocketRateLimiter() *WebSocketRateLimiter {
	return &WebSocketRateLimiter{
		clients: make(map[*Client]*messageRateBucket),
	}
}

// newMessageRateBucket creates a new message rate bucket.
func newMessageRateBucket(messagesPerSecond int) *messageRateBucket {
	capacity := float64(messagesPerSecond) * 2.0 // Allow burst of 2x
	refillRate := float64(messagesPerSecond)

	return &messageRateBucket{
		tokens:         capacity,
		capacity:       capacity,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

// allow checks if a message can be allowed (returns true if token available).
func (mb *messageRateBucket) allow() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(mb.lastRefillTime).Seconds()

	mb.tokens = min(mb.capacity, mb.tokens+elapsed*mb.refillRate)
	mb.lastRefillTime = now

	if mb.tokens >= 1.0 {
		mb.tokens--
		return true
	}

	return false
}

// Register registers a client for rate limiting.
func (rl *WebSocketRateLimiter) Register(client *Client, messagesPerSecond int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.clients[client] = newMessageRateBucket(messagesPerSecond)
}

// Unregister removes a client from rate limiting.
func (rl *WebSocketRateLimiter) Unregister(client *Client) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.clients, client)
}

// Allow checks if a message from the client should be allowed.
func (rl *WebSocketRateLimiter) Allow(client *Client) bool {
	rl.mu.RLock()
	bucket, exists := rl.clients[client]
	rl.mu.RUnlock()

	if !exists {
		// If not registered, deny by default
		return false
	}

	return bucket.allow()
}

// isOriginAllowed checks if the origin is in the allowed list.
// Supports exact matches and wildcard "*".
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	// If no origin header, deny (browsers always send Origin for WebSocket)
	if origin == "" {
		return false
	}

	for _, allowed := range allowedOrigins {
		// Wildcard allows all (not recommended for production)
		if allowed == "*" {
			return true
		}

		if origin == allowed {
			return true
		}

		// Support wildcard subdomains: *.example.com
		if strings.HasPrefix(allowed, "*.") {
			domain := allowed[2:]
			if strings.HasSuffix(origin, domain) {
				return true
			}
		}
	}

	return false
}

// CheckOriginWithConfig creates a CheckOrigin function based on security config.
func CheckOriginWithConfig(config WebSocketSecurityConfig) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		allowed := isOriginAllowed(origin, config.AllowedOrigins)
		if !allowed {
			logging.SecurityEvent("websocket_origin_rejected", "websocket",
				"origin", origin)
		}

		return allowed
	}
}

// ValidateAuthForWebSocket checks authentication before WebSocket upgrade.
// Returns an error message if authentication fails, empty string if success.
func ValidateAuthForWebSocket(r *http.Request, config WebSocketSecurityConfig) string {
	// If auth not required, allow
	if !config.RequireAuth {
		return ""
	}

	if !config.AuthConfig.Enabled {
		return "Authentication required but not configured"
	}

	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		// Query parameter fallback for clients that cannot set headers
		apiKey = r.URL.Query().Get("api_key")
		if apiKey == "" {
			return "Missing API key (X-API-Key header or api_key query parameter)"
		}
	}

	if !constantTimeCompare(apiKey, config.AuthConfig.APIKey) {
		return "Invalid API key"
	}

	return ""
}

// SecureWebSocketHandler upgrades connections and runs the live-preview
// loop for each client, with origin checks, optional authentication, frame
// size limits, and per-client message rate limiting.
func SecureWebSocketHandler(hub *Hub, config WebSocketSecurityConfig, rateLimiter *WebSocketRateLimiter) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     CheckOriginWithConfig(config),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if authError := ValidateAuthForWebSocket(r, config); authError != "" {
			logging.SecurityEvent("websocket_auth_failed", "websocket",
				"reason", authError,
				"client_ip", getClientIP(r))
			http.Error(w, "Unauthorized: "+authError, http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Error("websocket upgrade failed", "error", err)
			return
		}

		conn.SetReadLimit(config.MaxMessageSize)

		client := &Client{
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 256),
		}

		rateLimiter.Register(client, config.MaxMessageRate)
		hub.register <- client

		go client.writePump()
		go client.readPump(rateLimiter)
	}
}

// readPump reads preview frames from the connection and answers each one.
func (c *Client) readPump(rateLimiter *WebSocketRateLimiter) {
	defer func() {
		rateLimiter.Unregister(c)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			break
		}

		if !rateLimiter.Allow(c) {
			logging.SecurityEvent("websocket_rate_limited", "websocket")
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Rate limit exceeded"))
			break
		}

		c.handlePreview(message)
	}
}

// handlePreview parses one preview frame and queues the reply: the render
// result on success, the structured diagnostic otherwise.
func (c *Client) handlePreview(data []byte) {
	var req PreviewRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(PreviewResponse{
			Type:  "error",
			Error: &APIError{Code: "INVALID_JSON", Message: "Invalid JSON frame"},
		})
		return
	}

	name := req.Renderer
	if name == "" {
		name = "ansi"
	}
	if !server.ValidateIdentifier(name) {
		c.reply(PreviewResponse{
			Type:  "error",
			Error: &APIError{Code: "INVALID_RENDERER", Message: "Renderer name contains invalid characters"},
		})
		return
	}

	if len(req.Source) > validation.MaxInputSize {
		c.reply(PreviewResponse{
			Type:  "error",
			Error: &APIError{Code: "INPUT_TOO_LARGE", Message: "Source exceeds size limit"},
		})
		return
	}

	output, _, err := renderSource(req.Source, name)
	if err != nil {
		logging.ParseError("websocket", err)
		c.reply(PreviewResponse{
			Type:     "error",
			Renderer: name,
			Error:    previewError(err),
		})
		return
	}

	c.reply(PreviewResponse{
		Type:     "render",
		Renderer: name,
		Output:   string(output),
	})
}

// previewError maps a render failure to the wire error, mirroring the
// REST handlers' code taxonomy.
func previewError(err error) *APIError {
	if errors.Is(err, errors.ErrNotFound) {
		return &APIError{Code: "UNKNOWN_RENDERER", Message: err.Error()}
	}

	var parseErr *taml.ParseError
	if errors.As(err, &parseErr) {
		return &APIError{Code: "PARSE_ERROR", Message: parseErr.Error(), Detail: parseErr}
	}

	return &APIError{Code: "INTERNAL_ERROR", Message: err.Error()}
}

// reply queues a response frame for the client, dropping it if the send
// buffer is full.
func (c *Client) reply(msg PreviewResponse) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("failed to marshal preview response", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		logging.Warn("websocket send buffer full, dropping reply")
	}
}

// writePump writes queued messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any additional queued messages
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
