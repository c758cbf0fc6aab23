package transport

import (
	"errors"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/streadway/amqp"
)

const (
	// reconnectDelay governs both the STOMP and AMQP sinks' retry pace.
	reconnectDelay = 5 * time.Second
	reInitDelay    = 2 * time.Second
	resendDelay    = 5 * time.Second

	// tokenCheckInterval governs how often AmqpSink re-stats its token
	// file looking for a refreshed credential.
	tokenCheckInterval = 10 * time.Second
)

var (
	errNotConnected  = errors.New("transport: amqp sink is not connected")
	errAlreadyClosed = errors.New("transport: amqp sink is already closed")
	errShutdown      = errors.New("transport: amqp sink is shutting down")
)

// AmqpSink publishes messages to an exchange over AMQP with publisher
// confirms, reconnecting on failure and reloading its bearer token from
// disk when the token file is refreshed underneath it. It satisfies Sink.
type AmqpSink struct {
	exchange      string
	tokenLocation string
	tokenModTime  time.Time

	url        url.URL
	connection *amqp.Connection
	channel    *amqp.Channel

	done            chan struct{}
	notifyConnClose chan *amqp.Error
	notifyChanClose chan *amqp.Error
	isReady         bool
}

// NewAmqpSink reads the bearer token at cfg.AmqpToken, dials the broker,
// and starts a background goroutine that reconnects whenever the token
// file is refreshed.
func NewAmqpSink(cfg *Config) (*AmqpSink, error) {
	stat, err := os.Stat(cfg.AmqpToken)
	if err != nil {
		return nil, err
	}
	token, err := readToken(cfg.AmqpToken)
	if err != nil {
		return nil, err
	}

	brokerURL := *cfg.AmqpURL
	brokerURL.User = url.UserPassword("xrdmon-collector", token)

	s := &AmqpSink{
		exchange:      cfg.AmqpExchange,
		tokenLocation: cfg.AmqpToken,
		tokenModTime:  stat.ModTime(),
		url:           brokerURL,
		done:          make(chan struct{}),
	}
	s.connect()
	go s.watchTokenFile()
	return s, nil
}

func readToken(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(contents)), nil
}

// watchTokenFile reconnects with a fresh token whenever the token file's
// mtime advances, so a credential rotation does not require a restart.
func (s *AmqpSink) watchTokenFile() {
	ticker := time.NewTicker(tokenCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			stat, err := os.Stat(s.tokenLocation)
			if err != nil {
				log.WithError(err).Error("transport: failed to stat amqp token file")
				continue
			}
			if !stat.ModTime().After(s.tokenModTime) {
				continue
			}
			s.tokenModTime = stat.ModTime()
			token, err := readToken(s.tokenLocation)
			if err != nil {
				log.WithError(err).Error("transport: failed to read refreshed amqp token")
				continue
			}
			s.url.User = url.UserPassword("xrdmon-collector", token)
			log.Debug("transport: amqp token refreshed, reconnecting")
			s.connect()
		}
	}
}

// connect dials the broker and initializes a confirm-mode channel,
// retrying indefinitely until it succeeds or Close is called.
func (s *AmqpSink) connect() {
	for {
		s.isReady = false
		brokerReconnects.WithLabelValues("amqp").Inc()

		conn, err := amqp.Dial(s.url.String())
		if err != nil {
			log.WithError(err).Warn("transport: failed to connect to amqp broker, retrying")
			select {
			case <-s.done:
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}
		s.connection = conn
		s.notifyConnClose = make(chan *amqp.Error)
		s.connection.NotifyClose(s.notifyConnClose)

		if err := s.initChannel(); err != nil {
			log.WithError(err).Warn("transport: failed to initialize amqp channel, retrying")
			select {
			case <-s.done:
				return
			case <-time.After(reInitDelay):
			}
			continue
		}
		return
	}
}

func (s *AmqpSink) initChannel() error {
	ch, err := s.connection.Channel()
	if err != nil {
		return err
	}
	if err := ch.Confirm(false); err != nil {
		return err
	}
	s.channel = ch
	s.notifyChanClose = make(chan *amqp.Error)
	s.channel.NotifyClose(s.notifyChanClose)
	s.isReady = true
	return nil
}

// Publish pushes data to the configured exchange, reconnecting and
// retrying until the channel accepts the publish. The channel is in
// confirm mode, but Publish does not wait for the broker's confirmation.
func (s *AmqpSink) Publish(msg []byte) error {
	for {
		err := s.unsafePublish(msg)
		if err == nil {
			return nil
		}
		log.WithError(err).Warn("transport: failed to publish to amqp, retrying")
		select {
		case <-s.done:
			return errShutdown
		case <-time.After(resendDelay):
		}
		s.reconnectIfClosed()
	}
}

// reconnectIfClosed drains a pending close notification and reconnects,
// without blocking if the connection is still healthy.
func (s *AmqpSink) reconnectIfClosed() {
	select {
	case <-s.notifyConnClose:
		s.connect()
	case <-s.notifyChanClose:
		s.connect()
	default:
	}
}

func (s *AmqpSink) unsafePublish(msg []byte) error {
	if !s.isReady {
		return errNotConnected
	}
	return s.channel.Publish(
		s.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "text/plain",
			Body:        msg,
		},
	)
}

// Close shuts down the reconnect goroutine and closes the channel and
// connection.
func (s *AmqpSink) Close() error {
	if !s.isReady {
		return errAlreadyClosed
	}
	close(s.done)
	if err := s.channel.Close(); err != nil {
		return err
	}
	if err := s.connection.Close(); err != nil {
		return err
	}
	s.isReady = false
	return nil
}
