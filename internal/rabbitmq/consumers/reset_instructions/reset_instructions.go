package resetinstructions

import (
	"context"
	"passgate/internal/core/domain/common"
	e "passgate/internal/core/domain/errors"
	"passgate/internal/core/domain/logging"
	"passgate/internal/core/domain/user"
	"passgate/internal/rabbitmq"
	"passgate/internal/rabbitmq/schema"

	"github.com/rabbitmq/amqp091-go"
)

// Consumer drains queued reset-instructions messages and hands them to
// the delivering notifier, typically the SES one.
type Consumer struct {
	log      logging.Logger
	channel  *rabbitmq.Channel
	queue    string
	notifier user.Notifier
}

func New(
	log logging.Logger,
	channel *rabbitmq.Channel,
	queue string,
	notifier user.Notifier,
) *Consumer {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if channel == nil {
		panic(e.NewNilArgumentError("channel"))
	}
	if queue == "" {
		panic("queue name must not be empty")
	}
	if notifier == nil {
		panic(e.NewNilArgumentError("notifier"))
	}

	return &Consumer{log: log, channel: channel, queue: queue, notifier: notifier}
}

func (c *Consumer) Consume() error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		c.log.Error(context.Background(), "Could not start consuming.", logging.Entry("err", err))
		return err
	}

	go func() {
		for delivery := range deliveries {
			message := &schema.ResetInstructions{}
			if err := message.Unmarshal(delivery.Body); err != nil {
				c.log.Error(
					context.Background(),
					"Could not unmarshal reset instructions message.",
					logging.Entry("err", err),
					logging.Entry("delivery", delivery),
				)
				c.Ack(delivery)
				continue
			}

			c.log.Info(
				context.Background(),
				"Got reset instructions message.",
				logging.Entry("email", message.Email),
			)
			err := c.notifier.SendResetInstructions(
				context.Background(),
				user.User{Email: common.NewOptional(common.NewEmail(message.Email), true)},
				user.RawResetToken(message.Token),
				user.ResetRequest{
					Email:            common.NewEmail(message.Email),
					RedirectURL:      message.RedirectURL,
					ClientConfigName: message.ClientConfigName,
				},
			)
			if err != nil {
				c.log.Error(
					context.Background(),
					"Could not send reset instructions, notifier returned an error.",
					logging.Entry("email", message.Email),
					logging.Entry("err", err),
				)
			}
			c.Ack(delivery)
		}
	}()
	return nil
}

func (c *Consumer) Ack(delivery amqp091.Delivery) {
	if err := delivery.Ack(true); err != nil {
		c.log.Error(context.Background(), "Could not ACK AMQP message.", logging.Entry("err", err))
	}
}
