// Command auditlog consumes behavior.recorded and message.sent events from
// RabbitMQ and appends them to an audit log file.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/school-behavior-tracker/internal/config"
	"github.com/iliyamo/school-behavior-tracker/internal/logging"
	"github.com/iliyamo/school-behavior-tracker/internal/queue"
)

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Getenv("APP_ENV"), os.Stdout)
	log := logging.NewDefault("auditlog")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{URL: config.AMQPURL(), Dir: config.AuditLogDir(), Log: log}
	log.WithField("dir", c.Dir).Info("audit consumer starting")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("audit consumer stopped")
	}
}
