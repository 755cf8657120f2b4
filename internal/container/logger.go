package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/logging"
	"go.uber.org/zap"
)

const (
	baseLoggerName = "logger.base"
	logSendTimeout = 5 * time.Second
	logQueueSize   = 1024
)

// LogShipping owns the in-process log queue and the worker draining it to the collector.
type LogShipping struct {
	bus      *gochannel.GoChannel
	delivery *logging.Delivery
	shipper  *logging.Shipper
}

// Shutdown stops delivery and closes the bus, which releases a shipper publish still waiting for an ack.
func (s *LogShipping) Shutdown() error {
	return errors.Join(s.delivery.Shutdown(), s.bus.Close(), s.shipper.Close())
}

// LoggerPackage provides *zap.Logger. When a log endpoint is set, entries are also shipped remotely.
func LoggerPackage(i *do.Injector) {
	do.ProvideNamed(i, baseLoggerName, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return logging.New(logging.Config{Format: opts.LogFormat, Level: opts.LogLevel})
	})

	do.Provide(i, func(i *do.Injector) (*LogShipping, error) {
		opts := do.MustInvoke[*Options](i)
		base := do.MustInvokeNamed[*zap.Logger](i, baseLoggerName)

		level, err := zap.ParseAtomicLevel(opts.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}

		bus := gochannel.NewGoChannel(
			gochannel.Config{BlockPublishUntilSubscriberAck: true},
			logging.NewWatermillLogger(base),
		)

		delivery, err := logging.NewDelivery(
			bus,
			logging.NewHTTPSender(opts.LogEndpoint, opts.LogToken, logSendTimeout),
			logging.DefaultRetryConfig(),
			base,
		)
		if err != nil {
			return nil, err
		}

		if err = delivery.Start(context.Background()); err != nil {
			return nil, fmt.Errorf("start log delivery: %w", err)
		}

		return &LogShipping{
			bus:      bus,
			delivery: delivery,
			shipper:  logging.NewShipper(bus, logging.StackBackend, level, logQueueSize),
		}, nil
	})

	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)
		base := do.MustInvokeNamed[*zap.Logger](i, baseLoggerName)

		if opts.LogEndpoint == "" {
			return base, nil
		}

		shipping, err := do.Invoke[*LogShipping](i)
		if err != nil {
			return nil, err
		}

		return logging.Tee(base, shipping.shipper), nil
	})
}
