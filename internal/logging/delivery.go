package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"
)

var ErrDeliveryFailed = errors.New("log delivery failed")

// Sender delivers a single entry to the collector.
type Sender interface {
	Send(ctx context.Context, entry Entry) error
}

// HTTPSender posts entries as JSON to a collector endpoint.
type HTTPSender struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPSender creates a sender for endpoint. An empty token sends no Authorization header.
func NewHTTPSender(endpoint, token string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSender) Send(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDeliveryFailed, resp.StatusCode)
	}

	return nil
}

// RetryConfig bounds redelivery of a single entry.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryConfig makes three attempts, one second apart and doubling.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2,
	}
}

// Delivery consumes queued entries and sends them with retries.
// Entries that still fail after the last retry are dropped.
type Delivery struct {
	router *message.Router
	logger *zap.Logger
	done   chan struct{}
}

// NewDelivery creates a delivery worker reading TopicLogs from subscriber.
// logger must not itself ship to the collector.
func NewDelivery(
	subscriber message.Subscriber,
	sender Sender,
	retry RetryConfig,
	logger *zap.Logger,
) (*Delivery, error) {
	router, err := message.NewRouter(message.RouterConfig{}, NewWatermillLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create log router: %w", err)
	}

	send := func(msg *message.Message) ([]*message.Message, error) {
		var entry Entry
		if err := json.Unmarshal(msg.Payload, &entry); err != nil {
			logger.Warn("dropping malformed log entry", zap.Error(err))

			return nil, nil
		}

		return nil, sender.Send(msg.Context(), entry)
	}

	retrying := middleware.Retry{
		MaxRetries:      retry.MaxRetries,
		InitialInterval: retry.InitialInterval,
		MaxInterval:     retry.MaxInterval,
		Multiplier:      retry.Multiplier,
		Logger:          NewWatermillLogger(logger),
	}.Middleware(send)

	router.AddNoPublisherHandler("remote_log_delivery", TopicLogs, subscriber,
		func(msg *message.Message) error {
			if _, err := retrying(msg); err != nil {
				logger.Warn("log delivery failed, dropping entry",
					zap.Int("attempts", retry.MaxRetries+1),
					zap.Error(err),
				)
			}

			return nil
		},
	)

	return &Delivery{
		router: router,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// Start runs the delivery router in the background and waits until it is subscribed.
func (d *Delivery) Start(ctx context.Context) error {
	go func() {
		defer close(d.done)

		if err := d.router.Run(ctx); err != nil {
			d.logger.Error("log delivery router stopped", zap.Error(err))
		}
	}()

	select {
	case <-d.router.Running():
		return nil
	case <-d.done:
		return errors.New("log delivery router exited before starting")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the router and waits for in-flight deliveries.
func (d *Delivery) Shutdown() error {
	err := d.router.Close()

	<-d.done

	return err
}
