package consumers

import (
	"context"
	"passgate/internal/app/deps"
	dl "passgate/internal/core/domain/logging"
	resetinstructions "passgate/internal/rabbitmq/consumers/reset_instructions"
)

func initResetInstructionsConsumer(deps *deps.Deps) func() {
	rabbitmqChannel, err := deps.Rabbitmq.Channel()
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not create RabbitMQ channel.", dl.Entry("err", err))
		panic(err)
	}

	queue := deps.Config.RabbitmqResetQueue
	resetInstructionsConsumer := resetinstructions.New(
		deps.Logger,
		rabbitmqChannel,
		queue,
		deps.EmailNotifier,
	)
	if err = resetInstructionsConsumer.Consume(); err != nil {
		deps.Logger.Error(
			context.Background(),
			"Could not start RabbitMQ consuming.",
			dl.Entry("err", err),
			dl.Entry("queue", queue),
		)
		panic(err)
	}

	deps.Logger.Info(context.Background(), "Consumer has started.", dl.Entry("queue", queue))
	return func() { rabbitmqChannel.Close() }
}

func InitConsumers(deps *deps.Deps) func() {
	shutdownResetInstructionsConsumer := initResetInstructionsConsumer(deps)

	return func() {
		shutdownResetInstructionsConsumer()
	}
}
