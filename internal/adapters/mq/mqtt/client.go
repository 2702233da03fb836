// Package mqtt carries door messages over an MQTT broker.
//
// Topics are <prefix>/door/enter, <prefix>/door/exit and <prefix>/door/user.
// The subscriber hands (channel, payload) pairs to a Handler; the publisher
// sends payloads on a channel. Both share one broker connection.
package mqtt

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/okian/doorlog/internal/domain/model"
	"github.com/okian/doorlog/pkg/logger"
	"github.com/okian/doorlog/pkg/metrics"
)

const (
	defaultTimeout   = 10 * time.Second
	disconnectMillis = 250
)

// Handler receives one door message. It runs on the transport goroutine and
// must not block.
type Handler func(channel, payload string)

// Client is a door message subscriber and publisher.
type Client struct {
	client   paho.Client
	prefix   string
	clientID string
	qos      byte
	timeout  time.Duration
	log      logger.Logger

	mu      sync.RWMutex
	handler Handler
}

// ClientID builds "<name without spaces>-<uuid>".
func ClientID(name string) string {
	return strings.ReplaceAll(name, " ", "") + "-" + uuid.NewString()
}

// Topic returns the topic for a door channel.
func Topic(prefix, channel string) string {
	return strings.TrimSuffix(prefix, "/") + "/door/" + channel
}

// ChannelOf maps a topic back to its door channel.
func ChannelOf(prefix, topic string) (string, bool) {
	for _, ch := range model.Channels {
		if Topic(prefix, ch) == topic {
			return ch, true
		}
	}
	return "", false
}

// New creates a client for brokerURL. It does not connect.
func New(brokerURL, name, prefix string, opts ...Option) *Client {
	c := &Client{
		prefix:  prefix,
		qos:     0,
		timeout: defaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clientID == "" {
		c.clientID = ClientID(name)
	}

	po := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(c.clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(c.timeout).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.log.Warn(context.Background(), "mqtt connection lost", logger.Error(err))
		})
	c.client = paho.NewClient(po)
	return c
}

// ID returns the client id presented to the broker.
func (c *Client) ID() string { return c.clientID }

// Connect dials the broker and waits for the CONNACK.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.wait(ctx, c.client.Connect()); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.log.Info(ctx, "mqtt connected", logger.String("client_id", c.clientID))
	return nil
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Subscribe registers h for every door channel. The subscription is renewed
// after reconnects.
func (c *Client) Subscribe(ctx context.Context, h Handler) error {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	return c.subscribeAll(ctx)
}

// Publish sends payload on a door channel.
func (c *Client) Publish(ctx context.Context, channel, payload string) error {
	if !slices.Contains(model.Channels, channel) {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	if !c.client.IsConnectionOpen() {
		metrics.RecordPublishError(channel)
		return ErrNotConnected
	}
	if err := c.wait(ctx, c.client.Publish(Topic(c.prefix, channel), c.qos, false, payload)); err != nil {
		metrics.RecordPublishError(channel)
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	metrics.RecordPublished(channel)
	c.log.Debug(ctx, "published", logger.String("channel", channel), logger.String("payload", payload))
	return nil
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.client.Disconnect(disconnectMillis)
}

func (c *Client) subscribeAll(ctx context.Context) error {
	filters := make(map[string]byte, len(model.Channels))
	for _, ch := range model.Channels {
		filters[Topic(c.prefix, ch)] = c.qos
	}
	if err := c.wait(ctx, c.client.SubscribeMultiple(filters, c.onMessage)); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	c.log.Info(ctx, "mqtt subscribed", logger.String("prefix", c.prefix))
	return nil
}

func (c *Client) onConnect(paho.Client) {
	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		return
	}
	// Resubscribe off the callback goroutine; paho serialises handlers.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.subscribeAll(ctx); err != nil {
			c.log.Error(ctx, "mqtt resubscribe failed", logger.Error(err))
		}
	}()
}

func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	ch, ok := ChannelOf(c.prefix, msg.Topic())
	if !ok {
		return
	}
	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h != nil {
		h(ch, string(msg.Payload()))
	}
}

func (c *Client) wait(ctx context.Context, tok paho.Token) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}
