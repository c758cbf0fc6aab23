package transport

// Pump dequeues messages from q and publishes them to sink. It never
// returns, including after q is closed. It is the single message loop
// shared by both the STOMP and AMQP sinks; call it in its own goroutine.
func Pump(q *ConfirmationQueue, sink Sink) {
	for {
		msg, err := q.Dequeue()
		if err != nil {
			log.WithError(err).Error("transport: failed to read from queue")
			continue
		}
		if err := sink.Publish(msg); err != nil {
			log.WithError(err).Error("transport: sink gave up publishing a message")
		}
	}
}

// NewSink builds the Sink named by cfg.Sink ("stomp" or "amqp"). It
// returns (nil, nil) when shoveling is disabled.
func NewSink(cfg *Config) (Sink, error) {
	switch cfg.Sink {
	case "stomp":
		return NewStompSink(cfg), nil
	case "amqp":
		return NewAmqpSink(cfg)
	case "":
		return nil, nil
	default:
		return nil, errUnknownSink(cfg.Sink)
	}
}

type errUnknownSink string

func (e errUnknownSink) Error() string {
	return "transport: unknown sink " + string(e)
}
