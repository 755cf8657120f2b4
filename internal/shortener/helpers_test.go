package shortener_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

var errBackend = errors.New("backend unavailable")

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// failingStore fails the operations whose flags are set and delegates the rest.
type failingStore struct {
	shortener.Repository

	failExists    bool
	failGet       bool
	failPut       bool
	failAnalytics bool
	failAppend    bool
	puts          int
}

func (f *failingStore) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	if f.failExists {
		return false, errBackend
	}

	return f.Repository.Exists(ctx, code)
}

func (f *failingStore) Get(ctx context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	if f.failGet {
		return nil, errBackend
	}

	return f.Repository.Get(ctx, code)
}

func (f *failingStore) Put(ctx context.Context, record *shortener.URLRecord) error {
	f.puts++

	if f.failPut {
		return errBackend
	}

	return f.Repository.Put(ctx, record)
}

func (f *failingStore) Analytics(ctx context.Context, code shortener.Code) (*shortener.Analytics, error) {
	if f.failAnalytics {
		return nil, errBackend
	}

	return f.Repository.Analytics(ctx, code)
}

func (f *failingStore) AppendClick(ctx context.Context, code shortener.Code, click shortener.ClickRecord) error {
	if f.failAppend {
		return errBackend
	}

	return f.Repository.AppendClick(ctx, code, click)
}

// sequence returns a generator yielding codes in order, then repeating the last one.
func sequence(codes ...string) shortener.CodeGenerator {
	var (
		mu sync.Mutex
		i  int
	)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		code := codes[min(i, len(codes)-1)]
		i++

		return code
	}
}
