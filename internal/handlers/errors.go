package handlers

import (
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
)

var badRequestOnce sync.Once

// useBadRequestForValidation makes huma answer request validation failures with 400 instead of 422.
func useBadRequestForValidation() {
	badRequestOnce.Do(func() {
		newError := huma.NewError

		huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
			if status == http.StatusUnprocessableEntity {
				status = http.StatusBadRequest
			}

			return newError(status, msg, errs...)
		}
	})
}
