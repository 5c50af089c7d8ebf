package rabbitmq

import (
	"context"
	"fmt"
	"passgate/internal/core/domain/logging"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Seconds to wait between reconnect attempts.
const reconnectDelay = 3

// Connection embeds amqp.Connection and redials it whenever the broker
// drops the link, so callers hold one handle for the process lifetime.
type Connection struct {
	*amqp.Connection
	log logging.Logger
}

func Dial(url string, log logging.Logger) (*Connection, error) {
	if log == nil {
		return nil, fmt.Errorf("log argument must not be nil")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	connection := &Connection{
		Connection: conn,
		log:        log,
	}

	go func() {
		for {
			reason, ok := <-connection.Connection.NotifyClose(make(chan *amqp.Error))
			if !ok {
				// Closed on our side, nothing to restore.
				log.Info(context.Background(), "RabbitMQ connection closed.")
				break
			}

			log.Warning(context.Background(), "RabbitMQ connection lost.", logging.Entry("reason", *reason))
			for {
				time.Sleep(reconnectDelay * time.Second)

				conn, err := amqp.Dial(url)
				if err == nil {
					connection.Connection = conn
					log.Info(context.Background(), "RabbitMQ connection restored.")
					break
				}
				log.Error(context.Background(), "RabbitMQ reconnect attempt failed.", logging.Entry("err", err))
			}
		}
	}()

	return connection, nil
}

// Channel opens a channel that survives broker-side closes. A fresh
// underlying channel is swapped in after every reconnect of the parent
// connection.
func (c *Connection) Channel() (*Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}

	channel := &Channel{
		Channel: ch,
		log:     c.log,
	}

	go func() {
		for {
			reason, ok := <-channel.Channel.NotifyClose(make(chan *amqp.Error))
			if !ok || channel.IsClosed() {
				// Close sets the flag; call it again in case the
				// connection went down before the caller did.
				channel.Close()
				break
			}

			c.log.Warning(context.Background(), "RabbitMQ channel lost.", logging.Entry("reason", *reason))
			for {
				time.Sleep(reconnectDelay * time.Second)

				ch, err := c.Connection.Channel()
				if err == nil {
					c.log.Info(context.Background(), "RabbitMQ channel restored.")
					channel.Channel = ch
					break
				}

				c.log.Error(context.Background(), "RabbitMQ channel reopen failed.", logging.Entry("err", err))
			}
		}
	}()

	return channel, nil
}

// Channel embeds amqp.Channel and tracks whether the close came from
// the caller, which is the signal to stop reconnecting.
type Channel struct {
	*amqp.Channel
	closed int32
	log    logging.Logger
}

func (ch *Channel) IsClosed() bool {
	return atomic.LoadInt32(&ch.closed) == 1
}

func (ch *Channel) Close() error {
	if ch.IsClosed() {
		return amqp.ErrClosed
	}

	atomic.StoreInt32(&ch.closed, 1)

	return ch.Channel.Close()
}

// Consume keeps one delivery stream open across reconnects. The
// returned channel only ends after the caller closes the Channel.
func (ch *Channel) Consume(
	queue, consumer string,
	autoAck, exclusive, noLocal, noWait bool,
	args amqp.Table,
) (<-chan amqp.Delivery, error) {
	deliveries := make(chan amqp.Delivery)

	go func() {
		for {
			d, err := ch.Channel.Consume(queue, consumer, autoAck, exclusive, noLocal, noWait, args)
			if err != nil {
				ch.log.Error(context.Background(), "Could not consume, retrying.", logging.Entry("err", err))
				time.Sleep(reconnectDelay * time.Second)
				continue
			}

			for msg := range d {
				deliveries <- msg
			}

			// Give Close a moment to set the flag before checking it.
			time.Sleep(reconnectDelay * time.Second)

			if ch.IsClosed() {
				ch.log.Info(context.Background(), "Consuming stopped.", logging.Entry("queue", queue))
				break
			}
		}
	}()

	return deliveries, nil
}
