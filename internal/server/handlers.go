package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/avelagg/stickerforge/internal/media"
	"github.com/avelagg/stickerforge/internal/pipeline"
	"github.com/avelagg/stickerforge/internal/storage"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	pipe      *pipeline.Pipeline
	store     storage.Storage
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(pipe *pipeline.Pipeline, store storage.Storage, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		pipe:      pipe,
		store:     store,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Convert handles POST /convert requests. The request is processed
// synchronously: the response carries the converted asset or a terminal
// error.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.DataBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "data_base64 is not valid base64", "INVALID_BASE64")
		return
	}

	result, err := h.pipe.Process(r.Context(), pipeline.Input{
		Data:         data,
		DeclaredType: req.ContentType,
		Authorized:   AuthorizedFrom(r.Context()),
	})
	if err != nil {
		status, code := mapError(err)
		writeError(w, status, err.Error(), code)
		return
	}

	resp := ConvertResponse{
		Format:    result.MIME,
		Width:     result.Meta.Width,
		Height:    result.Meta.Height,
		SizeBytes: result.Size(),
	}

	if req.Publish {
		url, err := h.store.Publish(r.Context(), publishKey(result.MIME), bytes.NewReader(result.Data))
		if err != nil {
			if errors.Is(err, storage.ErrPublishNotConfigured) {
				writeError(w, http.StatusBadRequest, err.Error(), "PUBLISH_NOT_CONFIGURED")
				return
			}
			h.logger.Error("publish failed", slog.String("error", err.Error()))
			writeError(w, http.StatusBadGateway, "failed to publish asset", "PUBLISH_FAILED")
			return
		}
		resp.URL = url
	} else {
		resp.DataBase64 = base64.StdEncoding.EncodeToString(result.Data)
	}

	writeJSON(w, http.StatusOK, resp)
}

// mapError translates pipeline error kinds into HTTP responses.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, media.ErrNotAllowed):
		return http.StatusForbidden, "NOT_ALLOWED"
	case errors.Is(err, media.ErrInvalidMedia):
		return http.StatusUnprocessableEntity, "INVALID_MEDIA"
	case errors.Is(err, media.ErrSizeBudgetExceeded):
		return http.StatusRequestEntityTooLarge, "SIZE_BUDGET_EXCEEDED"
	case errors.Is(err, media.ErrTranscodeFailed):
		return http.StatusBadGateway, "TRANSCODE_FAILED"
	case errors.Is(err, media.ErrResource):
		return http.StatusInternalServerError, "RESOURCE_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// publishKey builds an object key for a converted asset.
func publishKey(mime string) string {
	ext := ".bin"
	switch mime {
	case "image/webp":
		ext = ".webp"
	case "video/webm":
		ext = ".webm"
	}
	return fmt.Sprintf("stickers/%d%s", time.Now().UnixNano(), ext)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a standard error response.
func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}
