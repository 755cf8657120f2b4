package shortener

import "errors"

var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrInvalidShortcode   = errors.New("shortcode must be 3-10 alphanumeric characters")
	ErrInvalidValidity    = errors.New("validity exceeds the maximum")
	ErrShortcodeCollision = errors.New("shortcode already in use")
	ErrNotFound           = errors.New("short url not found")
	ErrExpired            = errors.New("short url expired")
	ErrExhausted          = errors.New("could not find an unused shortcode")
)
