// Package transport publishes mapped events onward to a message broker.
// It is a collaborator outside the core decode/reorder/correlate/map
// pipeline: the pipeline produces mapper.Event values, something else
// encodes them, and this package is the "something else" that gets the
// encoded bytes to a STOMP or AMQP broker without losing them across a
// broker outage.
package transport

// Sink accepts an already-encoded message for eventual delivery. A
// Sink implementation owns its own reconnect policy; Publish may block
// while a connection is reestablished.
type Sink interface {
	// Publish delivers msg, blocking until the Sink has handed it to the
	// broker or gives up trying to reconnect. StompSink waits for the
	// broker's receipt; AmqpSink does not wait for a publisher confirm.
	Publish(msg []byte) error

	// Close releases the Sink's connection.
	Close() error
}
