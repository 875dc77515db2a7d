// Command notifier consumes order events and emails customers.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go-storefront/config"
	"go-storefront/events"
	"go-storefront/utils"

	"github.com/sirupsen/logrus"
)

const (
	queueName = "notifier.orders"
	prefetch  = 10
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	if cfg.IsProd() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if err := run(cfg); err != nil {
		logrus.WithError(err).Fatal("Notifier stopped")
	}
}

func run(cfg *config.Config) error {
	if cfg.Rabbit.URL == "" {
		return errors.New("RABBIT_URL is required")
	}
	mailer, err := utils.NewMailer(cfg.Mail)
	if err != nil {
		return err
	}
	notifier := &events.Notifier{Mailer: utils.NewEmailService(mailer, cfg.Mail.FromName)}

	consumer, err := events.NewConsumer(cfg.Rabbit.URL, queueName, prefetch)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.WithField("queue", queueName).Info("Notifier consuming order events")
	return consumer.Run(ctx, notifier.Handle)
}
