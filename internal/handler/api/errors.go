package api

import (
	"errors"

	"PerfectRatio/internal/domain/models"
	xhttp "PerfectRatio/pkg/http"
)

// toAppError maps calculation errors onto API error codes.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, models.ErrEmptyDeck):
		return xhttp.UnprocessableError("ERR_EMPTY_DECK", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidOverride):
		return xhttp.UnprocessableError("ERR_INVALID_OVERRIDE", err.Error()).WithError(err)
	case errors.Is(err, models.ErrDeckSizeMismatch):
		return xhttp.UnprocessableError("ERR_DECK_SIZE_MISMATCH", err.Error()).WithError(err)
	case errors.Is(err, models.ErrImportParse):
		return xhttp.BadRequestError("ERR_IMPORT_PARSE", err.Error()).WithError(err)
	case errors.Is(err, models.ErrInvalidParameters):
		return xhttp.BadRequestError("ERR_INVALID_PARAMETERS", err.Error()).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
