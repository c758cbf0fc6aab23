package transport

import (
	"crypto/tls"
	"net/url"
	"time"

	stomp "github.com/go-stomp/stomp/v3"
)

// StompSink publishes messages to a STOMP topic, reconnecting on send
// failure. It satisfies Sink.
type StompSink struct {
	username string
	password string
	url      url.URL
	host     string
	topic    string
	tls      bool
	conn     *stomp.Conn
}

// NewStompSink dials a STOMP broker and returns a ready-to-use sink. It
// blocks until the first connection succeeds.
func NewStompSink(cfg *Config) *StompSink {
	s := &StompSink{
		username: cfg.StompUser,
		password: cfg.StompPassword,
		url:      *cfg.StompURL,
		host:     cfg.StompHost,
		topic:    cfg.StompTopic,
		tls:      cfg.StompTLS,
	}
	s.reconnect()
	return s
}

// reconnect dials the broker, retrying indefinitely on failure.
func (s *StompSink) reconnect() {
	if s.conn != nil {
		if err := s.conn.Disconnect(); err != nil {
			log.WithError(err).Warn("transport: error disconnecting stomp session")
		}
	}

	for {
		brokerReconnects.WithLabelValues("stomp").Inc()
		var conn *stomp.Conn
		var err error
		if s.tls {
			var netConn *tls.Conn
			netConn, err = tls.Dial("tcp", s.url.String(), &tls.Config{})
			if err == nil {
				conn, err = stomp.Connect(netConn,
					stomp.ConnOpt.Login(s.username, s.password),
					stomp.ConnOpt.Host(s.host))
			}
		} else {
			conn, err = stomp.Dial("tcp", s.url.String(),
				stomp.ConnOpt.Login(s.username, s.password),
				stomp.ConnOpt.Host(s.host))
		}
		if err != nil {
			log.WithError(err).Warn("transport: failed to connect to stomp broker, retrying")
			time.Sleep(reconnectDelay)
			continue
		}
		s.conn = conn
		return
	}
}

// Publish sends msg to the configured topic, reconnecting and retrying on
// failure until it succeeds.
func (s *StompSink) Publish(msg []byte) error {
	for {
		err := s.conn.Send(s.topic, "text/plain", msg, stomp.SendOpt.Receipt)
		if err == nil {
			return nil
		}
		log.WithError(err).Warn("transport: failed to publish to stomp, reconnecting")
		s.reconnect()
	}
}

// Close disconnects the STOMP session.
func (s *StompSink) Close() error {
	return s.conn.Disconnect()
}
