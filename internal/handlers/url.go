package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/analytics"
	"github.com/serroba/shortlink/internal/logging"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// ClickMode selects how redirects are turned into click records.
type ClickMode string

const (
	// ClickModeSync records the click before responding.
	ClickModeSync ClickMode = "sync"
	// ClickModeAsync publishes a url.accessed event for the consumer to record.
	ClickModeAsync ClickMode = "async"
)

// URLHandler handles URL shortening operations.
type URLHandler struct {
	registry           *shortener.Registry
	recorder           *shortener.Recorder
	baseURL            string
	clickMode          ClickMode
	publishURLCreated  messaging.Publish[analytics.URLCreatedEvent]
	publishURLAccessed messaging.Publish[analytics.URLAccessedEvent]
	logger             *zap.Logger
	now                func() time.Time
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	registry *shortener.Registry,
	recorder *shortener.Recorder,
	baseURL string,
	clickMode ClickMode,
	publishURLCreated messaging.Publish[analytics.URLCreatedEvent],
	publishURLAccessed messaging.Publish[analytics.URLAccessedEvent],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		registry:           registry,
		recorder:           recorder,
		baseURL:            strings.TrimRight(baseURL, "/"),
		clickMode:          clickMode,
		publishURLCreated:  publishURLCreated,
		publishURLAccessed: publishURLAccessed,
		logger:             logger.With(logging.Package(logging.PackageController)),
		now:                time.Now,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	record, err := h.registry.Create(ctx, shortener.CreateParams{
		URL:             req.Body.URL,
		ValidityMinutes: req.Body.Validity,
		CustomCode:      req.Body.Shortcode,
	})
	if err != nil {
		return nil, toHTTPError(err, "failed to create short url")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.URLCreatedEvent{
		Code:            string(record.Code),
		OriginalURL:     record.OriginalURL,
		ValidityMinutes: record.ValidityMinutes,
		CreatedAt:       record.CreatedAt,
		ExpiresAt:       record.ExpiresAt,
		ClientIP:        meta.ClientIP,
		UserAgent:       meta.UserAgent,
	}

	if err := h.publishURLCreated(event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	shortLink := h.baseURL + "/" + string(record.Code)

	resp := &CreateShortURLResponse{Location: shortLink}
	resp.Body.ShortLink = shortLink
	resp.Body.Expiry = record.ExpiresAt

	return resp, nil
}

func (h *URLHandler) GetStatistics(ctx context.Context, req *StatisticsRequest) (*StatisticsResponse, error) {
	record, stats, err := h.registry.Statistics(ctx, shortener.Code(req.Shortcode))
	if err != nil {
		return nil, toHTTPError(err, "failed to retrieve statistics")
	}

	resp := &StatisticsResponse{}
	resp.Body.Shortcode = string(record.Code)
	resp.Body.OriginalURL = record.OriginalURL
	resp.Body.CreatedAt = record.CreatedAt
	resp.Body.ExpiresAt = record.ExpiresAt
	resp.Body.TotalClicks = stats.TotalClicks
	resp.Body.ClickDetails = make([]ClickDetail, 0, len(stats.Clicks))

	for _, click := range stats.Clicks {
		resp.Body.ClickDetails = append(resp.Body.ClickDetails, ClickDetail{
			Timestamp: click.Timestamp,
			Referrer:  click.Referrer,
			Location:  click.Location,
			UserAgent: click.UserAgent,
		})
	}

	return resp, nil
}

func (h *URLHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	code := shortener.Code(req.Shortcode)

	record, err := h.registry.Resolve(ctx, code)
	if err != nil {
		return nil, toHTTPError(err, "failed to redirect")
	}

	meta := RequestMetaFromContext(ctx)

	if err = h.trackClick(ctx, code, meta); err != nil {
		return nil, huma.Error500InternalServerError("failed to redirect")
	}

	h.logger.Info("redirecting",
		zap.String("code", req.Shortcode),
		zap.String("target", record.OriginalURL),
	)

	return &RedirectResponse{
		Status:       http.StatusFound,
		Location:     record.OriginalURL,
		CacheControl: "no-cache, no-store, must-revalidate",
		Pragma:       "no-cache",
		Expires:      "0",
	}, nil
}

// trackClick records synchronously, or hands the click to the consumer in async mode.
// A failed publish falls back to recording in-line so the click is not lost.
func (h *URLHandler) trackClick(ctx context.Context, code shortener.Code, meta RequestMeta) error {
	now := h.now()

	if h.clickMode == ClickModeAsync {
		event := &analytics.URLAccessedEvent{
			Code:       string(code),
			AccessedAt: now,
			ClientIP:   meta.ClientIP,
			UserAgent:  meta.UserAgent,
			Referrer:   meta.Referrer,
		}

		err := h.publishURLAccessed(event)
		if err == nil {
			return nil
		}

		h.logger.Error("failed to publish access event, recording in-line",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return h.recorder.RecordClick(ctx, shortener.Click{
		Code:          code,
		Referrer:      meta.Referrer,
		UserAgent:     meta.UserAgent,
		ClientAddress: meta.ClientIP,
		At:            now,
	})
}

func toHTTPError(err error, fallback string) error {
	switch {
	case errors.Is(err, shortener.ErrInvalidURL):
		return huma.Error400BadRequest("Please provide a valid URL")
	case errors.Is(err, shortener.ErrInvalidShortcode):
		return huma.Error400BadRequest("Shortcode must be 3-10 alphanumeric characters")
	case errors.Is(err, shortener.ErrInvalidValidity):
		return huma.Error400BadRequest("Validity must be between 1 and 52560000 minutes")
	case errors.Is(err, shortener.ErrShortcodeCollision):
		return huma.Error409Conflict("The provided shortcode is already in use")
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound("Shortcode does not exist")
	case errors.Is(err, shortener.ErrExpired):
		return huma.Error410Gone("This short link has expired")
	default:
		return huma.Error500InternalServerError(fallback)
	}
}
