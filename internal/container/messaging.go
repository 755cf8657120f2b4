package container

import (
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/samber/do"
	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

const analyticsConsumerGroup = "shortlink-analytics"

// PublisherGroupPackage provides the analytics publisher: Redis streams when events are on, a discard sink otherwise.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if !opts.PublishEvents() {
			return messaging.NewPublisherGroup(messaging.DiscardPublisher{}), nil
		}

		conn, err := do.Invoke[*RedisConn](i)
		if err != nil {
			return nil, err
		}

		var publisher message.Publisher

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client:     conn.Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			},
			logging.NewWatermillLogger(logger.With(logging.Package(logging.PackageUtils))),
		)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the consumers that turn analytics events into click records.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i).With(logging.Package(logging.PackageCronJob))

		conn, err := do.Invoke[*RedisConn](i)
		if err != nil {
			return nil, err
		}

		recorder, err := do.Invoke[*shortener.Recorder](i)
		if err != nil {
			return nil, err
		}

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        conn.Client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: analyticsConsumerGroup,
			},
			logging.NewWatermillLogger(logger),
		)
		if err != nil {
			return nil, err
		}

		sink := analytics.NewRecorderSink(recorder, logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicURLCreated, sink.HandleURLCreated, logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicURLAccessed, sink.HandleURLAccessed, logger))

		return group, nil
	})
}
