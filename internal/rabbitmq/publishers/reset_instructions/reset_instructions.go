package resetinstructions

import (
	"context"
	"errors"
	e "passgate/internal/core/domain/errors"
	"passgate/internal/core/domain/logging"
	"passgate/internal/core/domain/user"
	"passgate/internal/rabbitmq"
	"passgate/internal/rabbitmq/schema"

	"github.com/rabbitmq/amqp091-go"
)

// RabbitMQ queues reset-instructions deliveries instead of sending them
// inline, so a slow mail provider does not stall the request handler.
type RabbitMQ struct {
	log        logging.Logger
	channel    *rabbitmq.Channel
	exchange   string
	routingKey string
}

func NewRabbitMQ(log logging.Logger, channel *rabbitmq.Channel, exchange string, routingKey string) *RabbitMQ {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if channel == nil {
		panic(e.NewNilArgumentError("channel"))
	}
	return &RabbitMQ{log: log, channel: channel, exchange: exchange, routingKey: routingKey}
}

func (s *RabbitMQ) SendResetInstructions(
	ctx context.Context,
	u user.User,
	token user.RawResetToken,
	req user.ResetRequest,
) error {
	if !u.Email.IsPresent {
		return errors.New("user email is not defined")
	}

	message := schema.ResetInstructions{
		Email:            string(u.Email.Value),
		Token:            string(token),
		RedirectURL:      req.RedirectURL,
		ClientConfigName: req.ClientConfigName,
	}
	body, err := message.Marshal()
	if err != nil {
		return err
	}

	err = s.channel.PublishWithContext(ctx, s.exchange, s.routingKey, false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		logging.Error(ctx, s.log, err)
		return err
	}
	s.log.Info(
		ctx,
		"Reset instructions message has been successfully published.",
		logging.Entry("exchange", s.exchange),
		logging.Entry("RK", s.routingKey),
		logging.Entry("userID", u.ID),
	)
	return nil
}
