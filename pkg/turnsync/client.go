// Package turnsync carries order deltas from players to the turn server over NATS and drives the
// server's end-of-turn replay.
package turnsync

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Client is a NATS connection with connection-event logging.
type Client struct {
	*nats.Conn
	log        zerolog.Logger
	natsConfig NATSConfig
}

// NATSConfig holds the configuration for the NATS client.
type NATSConfig struct {
	Name            string `env:"NATS_NAME" envDefault:"freeorion"`
	URL             string `env:"NATS_URL" envDefault:"nats://nats:4222"`
	CredentialsFile string `env:"NATS_CREDENTIALS_FILE"`
}

// Validate validates the NATS configuration and returns an error if invalid.
func (cfg NATSConfig) Validate() error {
	if cfg.URL == "" {
		return eris.New("NATS URL is required")
	}
	// Without a credentials file the connection is unauthenticated.
	return nil
}

// NewClient connects to NATS. Options override the environment configuration.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		Conn:       nil,
		log:        zerolog.Nop(),
		natsConfig: NATSConfig{},
	}

	var err error
	c.natsConfig, err = env.ParseAs[NATSConfig]()
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse NATS config")
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.natsConfig.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid NATS config")
	}

	natsOpts := []nats.Option{
		nats.Name(c.natsConfig.Name),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second * 5),
		nats.DisconnectErrHandler(c.handleDisconnect),
		nats.ReconnectHandler(c.handleReconnect),
		nats.ClosedHandler(c.handleClosed),
		nats.ErrorHandler(c.handleError),
	}
	if c.natsConfig.CredentialsFile != "" {
		natsOpts = append(natsOpts, nats.UserCredentials(c.natsConfig.CredentialsFile))
	}

	conn, err := nats.Connect(c.natsConfig.URL, natsOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to NATS server")
	}
	c.Conn = conn

	c.log.Info().
		Str("url", c.ConnectedUrl()).
		Str("name", c.natsConfig.Name).
		Msg("Connected to NATS server")

	return c, nil
}

// Close closes the connection.
func (c *Client) Close() {
	if c.Conn != nil {
		c.Conn.Close()
		c.log.Info().Msg("NATS connection closed")
	}
}

func (c *Client) handleDisconnect(nc *nats.Conn, err error) {
	log := c.log.With().
		Str("nats_url", nc.ConnectedUrl()).
		Uint64("reconnect_attempts", nc.Reconnects).
		Logger()

	if err != nil {
		log.Error().Err(err).Msg("Disconnected from NATS with error")
	} else {
		log.Warn().Msg("Disconnected from NATS (no error)")
	}
}

func (c *Client) handleReconnect(nc *nats.Conn) {
	c.log.Info().
		Str("nats_url", nc.ConnectedUrl()).
		Uint64("reconnect_attempts", nc.Reconnects).
		Msg("Reconnected to NATS")
}

func (c *Client) handleClosed(nc *nats.Conn) {
	log := c.log.With().
		Uint64("reconnect_attempts", nc.Reconnects).
		Logger()

	if err := nc.LastError(); err != nil {
		log.Warn().Err(err).Msg("NATS connection closed with error")
	} else {
		log.Debug().Msg("NATS connection closed")
	}
}

func (c *Client) handleError(_ *nats.Conn, sub *nats.Subscription, err error) {
	subject := ""
	if sub != nil {
		subject = sub.Subject
	}
	c.log.Error().
		Err(err).
		Str("subject", subject).
		Msg("NATS subscription error occurred")
}

// ClientOption defines a function that can modify a Client.
type ClientOption func(*Client)

func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

func WithNATSConfig(cfg NATSConfig) ClientOption {
	return func(c *Client) {
		c.natsConfig = cfg
	}
}
