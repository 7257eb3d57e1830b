package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medhealth/medhealth/internal/platform/metrics"
	"github.com/medhealth/medhealth/internal/platform/retry"
)

const writeWait = 10 * time.Second

// Feed produces the resources pushed to a connection on every tick.
type Feed interface {
	Name() string
	Snapshot(ctx context.Context) (interface{}, error)
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPingHandler(h func(appData string) error)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Config holds the per-connection timers.
type Config struct {
	HeartbeatInterval time.Duration
	ClientTimeout     time.Duration
	PushInterval      time.Duration
	// AllowedOrigins restricts browser upgrades. Empty allows any origin.
	AllowedOrigins []string
}

func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 5 * time.Second,
		ClientTimeout:     30 * time.Second,
		PushInterval:      10 * time.Second,
	}
}

// Handler upgrades HTTP requests and runs one push session per connection.
type Handler struct {
	hub      *Hub
	cfg      Config
	upgrader gorillawebsocket.Upgrader
	policy   retry.Policy
	breaker  retry.BreakerConfig
	metrics  *metrics.Collector
	logger   zerolog.Logger
	now      func() time.Time
}

func NewHandler(hub *Hub, cfg Config, policy retry.Policy, collector *metrics.Collector, logger zerolog.Logger) *Handler {
	h := &Handler{
		hub:     hub,
		cfg:     cfg,
		policy:  policy,
		breaker: retry.DefaultBreakerConfig(),
		metrics: collector,
		logger:  logger.With().Str("component", "websocket").Logger(),
		now:     time.Now,
	}
	h.upgrader = gorillawebsocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin || allowed == u.Scheme+"://"+u.Host {
			return true
		}
	}
	return false
}

// Serve returns an echo handler that streams feed. Each feed gets its own
// circuit breaker around snapshot reads.
func (h *Handler) Serve(feed Feed) echo.HandlerFunc {
	breaker := retry.NewBreaker[[]byte]("feed:"+feed.Name(), h.policy, h.breaker, h.logger)
	return func(c echo.Context) error {
		ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// The upgrader has already written an error response.
			h.logger.Warn().Err(err).Str("feed", feed.Name()).Msg("websocket upgrade failed")
			return nil
		}
		h.Run(c.Request().Context(), ws, feed, breaker)
		return nil
	}
}

// Run drives a session until the peer goes away, misses its heartbeat, or ctx
// ends. It always closes conn.
func (h *Handler) Run(ctx context.Context, conn Conn, feed Feed, breaker *retry.Breaker[[]byte]) {
	client := newClient(uuid.New().String(), feed.Name(), conn, h.now())
	log := h.logger.With().Str("client_id", client.ID).Str("feed", client.Feed).Logger()

	h.hub.Register(client)
	h.metrics.ConnectionOpened(client.Feed)
	log.Info().Msg("websocket connected")
	defer func() {
		if h.hub.Unregister(client) {
			h.metrics.ConnectionClosed(client.Feed)
		}
		conn.Close()
		log.Info().Msg("websocket disconnected")
	}()

	conn.SetPongHandler(func(string) error {
		client.touch(h.now())
		return nil
	})
	conn.SetPingHandler(func(appData string) error {
		client.touch(h.now())
		err := conn.WriteControl(gorillawebsocket.PongMessage, []byte(appData), h.now().Add(writeWait))
		if errors.Is(err, gorillawebsocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	done := make(chan struct{})
	go h.readPump(client, done)

	heartbeat := time.NewTicker(h.cfg.HeartbeatInterval)
	defer heartbeat.Stop()
	push := time.NewTicker(h.cfg.PushInterval)
	defer push.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case f := <-client.send:
			if err := conn.WriteMessage(f.messageType, f.data); err != nil {
				log.Debug().Err(err).Msg("echo write failed")
				return
			}
		case <-heartbeat.C:
			if h.now().Sub(client.LastSeen()) > h.cfg.ClientTimeout {
				log.Info().Dur("timeout", h.cfg.ClientTimeout).Msg("websocket heartbeat missed")
				return
			}
			if err := conn.WriteControl(gorillawebsocket.PingMessage, nil, h.now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Msg("ping failed")
				return
			}
		case <-push.C:
			payload, err := breaker.Execute(ctx, func(ctx context.Context) ([]byte, error) {
				v, err := feed.Snapshot(ctx)
				if err != nil {
					return nil, err
				}
				return json.Marshal(v)
			})
			if err != nil {
				log.Warn().Err(err).Msg("push snapshot failed, skipping tick")
				continue
			}
			if err := conn.WriteMessage(gorillawebsocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Msg("push write failed")
				return
			}
			h.metrics.FramePushed(client.Feed)
		}
	}
}

// readPump reads frames until the connection fails or a close frame
// arrives. Text and binary frames are queued for echo.
func (h *Handler) readPump(client *Client, done chan<- struct{}) {
	defer close(done)

	for {
		mt, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		client.touch(h.now())
		if mt == gorillawebsocket.TextMessage || mt == gorillawebsocket.BinaryMessage {
			client.enqueue(frame{messageType: mt, data: data})
		}
	}
}
