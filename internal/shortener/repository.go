package shortener

import "context"

// Repository is the persistence contract for code mappings and their analytics.
// Implementations must serialize the read-modify-write inside AppendClick.
type Repository interface {
	Exists(ctx context.Context, code Code) (bool, error)

	// Get returns ErrNotFound when no record exists for code.
	Get(ctx context.Context, code Code) (*URLRecord, error)

	// Put stores the record, overwriting any previous record with the same code.
	Put(ctx context.Context, record *URLRecord) error

	// Analytics returns an empty entry when no click was recorded for code.
	Analytics(ctx context.Context, code Code) (*Analytics, error)

	// AppendClick increments the click total and appends the record in one step.
	AppendClick(ctx context.Context, code Code, click ClickRecord) error
}
