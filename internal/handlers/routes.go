package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// ReservedCodes are path segments served by fixed routes, so they can never be used as short codes.
var ReservedCodes = []string{"shorturls", "health", "docs", "schemas", "openapi"}

// RegisterRoutes registers all URL shortener routes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	useBadRequestForValidation()

	huma.Register(api, huma.Operation{
		OperationID:   "create-short-url",
		Method:        http.MethodPost,
		Path:          "/shorturls",
		Summary:       "Create short URL",
		Description:   "Creates a short URL with an optional custom code and validity in minutes.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "get-short-url-statistics",
		Method:      http.MethodGet,
		Path:        "/shorturls/{shortcode}",
		Summary:     "Get short URL statistics",
		Description: "Returns the short URL and every recorded click. Works after the link has expired.",
		Tags:        []string{"URLs"},
		Errors:      []int{http.StatusNotFound},
	}, urlHandler.GetStatistics)

	huma.Register(api, huma.Operation{
		OperationID:   "redirect",
		Method:        http.MethodGet,
		Path:          "/{shortcode}",
		Summary:       "Redirect to original URL",
		Description:   "Redirects to the original URL and records the click.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusFound,
		Errors:        []int{http.StatusNotFound, http.StatusGone},
	}, urlHandler.Redirect)
}
