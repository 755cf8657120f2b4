package shortener

import (
	"context"
	"math/rand/v2"
)

// Locator maps a client address to a coarse location label.
type Locator interface {
	Locate(ctx context.Context, clientAddress string) string
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context, clientAddress string) string

func (f LocatorFunc) Locate(ctx context.Context, clientAddress string) string {
	return f(ctx, clientAddress)
}

var simulatedLocations = []string{
	"New York, US",
	"London, UK",
	"Tokyo, JP",
	"Sydney, AU",
	"Berlin, DE",
}

// RandomLocator returns a random label from a fixed set and ignores the address.
// It stands in for a geo-IP lookup.
type RandomLocator struct{}

func (RandomLocator) Locate(_ context.Context, _ string) string {
	return simulatedLocations[rand.IntN(len(simulatedLocations))] //nolint:gosec // not security sensitive
}

// StaticLocator always returns the same label.
type StaticLocator string

func (s StaticLocator) Locate(_ context.Context, _ string) string {
	return string(s)
}
