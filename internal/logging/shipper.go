package logging

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap/zapcore"
)

// TopicLogs is the in-process topic carrying entries awaiting delivery.
const TopicLogs = "logs.remote"

// DefaultQueueSize bounds the entries waiting for the publisher.
const DefaultQueueSize = 1024

// Shipper is a zapcore.Core that hands log entries to a publisher for remote delivery.
// Write never blocks on delivery and never reports delivery errors. Entries that arrive
// while the queue is full are dropped and counted.
type Shipper struct {
	zapcore.LevelEnabler

	queue          *queue
	stack          Stack
	defaultPackage string
	pkg            string
}

type queue struct {
	publisher message.Publisher
	entries   chan *message.Message
	dropped   atomic.Uint64
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (q *queue) run() {
	defer close(q.done)

	for {
		select {
		case msg := <-q.entries:
			_ = q.publisher.Publish(TopicLogs, msg)
		case <-q.stop:
			return
		}
	}
}

// NewShipper creates a core publishing entries at or above level. At most size entries wait
// for the publisher; a size below one uses DefaultQueueSize. Close stops the worker.
func NewShipper(publisher message.Publisher, stack Stack, level zapcore.LevelEnabler, size int) *Shipper {
	if size < 1 {
		size = DefaultQueueSize
	}

	q := &queue{
		publisher: publisher,
		entries:   make(chan *message.Message, size),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	go q.run()

	return &Shipper{
		LevelEnabler:   level,
		queue:          q,
		stack:          stack,
		defaultPackage: PackageHandler,
	}
}

// Dropped reports how many entries were discarded because the queue was full.
func (s *Shipper) Dropped() uint64 {
	return s.queue.dropped.Load()
}

// Close stops the worker once its current publish returns. Entries still queued are discarded.
func (s *Shipper) Close() error {
	s.queue.closeOnce.Do(func() { close(s.queue.stop) })

	<-s.queue.done

	return nil
}

func (s *Shipper) With(fields []zapcore.Field) zapcore.Core {
	clone := *s
	if pkg, ok := packageField(fields); ok {
		clone.pkg = pkg
	}

	return &clone
}

func (s *Shipper) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if s.Enabled(ent.Level) {
		return ce.AddCore(ent, s)
	}

	return ce
}

func (s *Shipper) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	pkg := s.pkg
	if p, ok := packageField(fields); ok {
		pkg = p
	}

	if pkg == "" {
		pkg = s.defaultPackage
	}

	entry := Entry{
		Stack:   s.stack,
		Level:   levelName(ent.Level),
		Package: pkg,
		Message: ent.Message,
	}

	// The collector rejects invalid entries on every attempt, so they are not sent.
	if entry.Validate() != nil {
		return nil
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return nil //nolint:nilerr // shipping is best effort
	}

	select {
	case s.queue.entries <- message.NewMessage(watermill.NewUUID(), payload):
	default:
		s.queue.dropped.Add(1)
	}

	return nil
}

func (s *Shipper) Sync() error {
	return nil
}

func packageField(fields []zapcore.Field) (string, bool) {
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].Key == PackageKey && fields[i].Type == zapcore.StringType {
			return fields[i].String, true
		}
	}

	return "", false
}

func levelName(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return "debug"
	case zapcore.InfoLevel:
		return "info"
	case zapcore.WarnLevel:
		return "warn"
	case zapcore.ErrorLevel:
		return "error"
	default:
		return "fatal"
	}
}
