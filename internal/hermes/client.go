package hermes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects scribe publishes to the swarm.
const (
	SubjectRegistered       = "swarm.scribe.registered"
	SubjectTranscriptStored = "swarm.scribe.transcript.stored"
	SubjectStoriesPushed    = "swarm.scribe.stories.pushed"
)

// TranscriptStoredEvent announces a transcript upload.
type TranscriptStoredEvent struct {
	Filename string `json:"filename"`
	ID       string `json:"id"`
	Bytes    int    `json:"bytes"`
}

// StoriesPushedEvent summarizes the outcome of one push batch.
type StoriesPushedEvent struct {
	Count  int `json:"count"`
	Failed int `json:"failed"`
}

// Client is a publish-only connection to the hermes NATS bus. Scribe emits
// lifecycle events; it subscribes to nothing.
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Close() {
	c.conn.Close()
}
