package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/tastefull/backend/internal/api/middleware"
	"github.com/tastefull/backend/internal/domain/visibility"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const maxBodyBytes = 64 << 10

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an application error to its HTTP status. Only messages of
// client-side errors are returned; everything else is logged.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("Unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := appErr.HTTPStatus()
	if appErr.ClientFacing() {
		respondWithError(w, status, appErr.Message)
		return
	}

	observability.LoggerFromContext(r.Context()).Error().Err(err).Str("type", string(appErr.Type)).Msg("Request failed")
	if appErr.Type == apperrors.ErrorTypeExternal {
		respondWithError(w, status, "upstream service unavailable")
		return
	}
	respondWithError(w, status, "internal server error")
}

// decodeJSON decodes a bounded request body, rejecting unknown fields
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid request payload")
	}
	return nil
}

func viewerOf(r *http.Request) visibility.Viewer {
	return visibility.Viewer{UserID: middleware.ViewerID(r.Context())}
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, apperrors.NewValidationError("limit must be a non-negative integer")
	}
	return limit, nil
}
