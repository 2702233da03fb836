package mqtt

import (
	"time"

	"github.com/okian/doorlog/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithQoS sets the QoS used for subscriptions and publishes.
func WithQoS(qos byte) Option {
	return func(c *Client) {
		if qos <= 2 {
			c.qos = qos
		}
	}
}

// WithTimeout bounds connect, subscribe and publish round trips.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClientID overrides the generated client id.
func WithClientID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.clientID = id
		}
	}
}
