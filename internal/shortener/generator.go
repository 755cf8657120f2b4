package shortener

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const (
	// DefaultCodeLength is the length of generated codes.
	DefaultCodeLength = 6

	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeGenerator produces candidate codes. Candidates are not guaranteed to be unique.
type CodeGenerator func() string

// NewGenerator returns a generator of length characters drawn uniformly from [a-zA-Z0-9].
func NewGenerator(length int) (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(alphanumeric, length)
	if err != nil {
		return nil, fmt.Errorf("create code generator: %w", err)
	}

	return gen, nil
}
