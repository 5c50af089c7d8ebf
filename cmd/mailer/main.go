package main

import (
	"context"
	"os"
	"os/signal"
	"passgate/internal/app/consumers"
	"passgate/internal/app/deps"
	"passgate/internal/config"
	"syscall"
)

// The mailer drains queued reset instructions and delivers them through
// SES. It only makes sense with AMQP mail delivery enabled.
func main() {
	deps, shutdownDeps := deps.InitDeps()
	log := deps.Logger
	defer shutdownDeps()

	if deps.Config.MailDelivery != config.MailDeliveryAMQP {
		panic("mailer requires MAIL_DELIVERY=amqp")
	}

	shutdownConsumers := consumers.InitConsumers(deps)
	defer shutdownConsumers()

	stopCh, closeCh := createChannel()
	defer closeCh()

	log.Info(context.Background(), "Mailer has started.")
	<-stopCh
	log.Info(context.Background(), "Mailer is stopping.")
}

func createChannel() (chan os.Signal, func()) {
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	return stopCh, func() {
		close(stopCh)
	}
}
