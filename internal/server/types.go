// Package server provides the HTTP server for the StickerForge API.
// It includes handlers, middleware, routes, and DTOs separated from
// domain types.
package server

// ConvertRequest is the HTTP request body for converting media into a
// sticker-ready asset.
type ConvertRequest struct {
	// DataBase64 is the base64-encoded input media.
	DataBase64 string `json:"data_base64" validate:"required,base64"`
	// ContentType is the sender's declared content type. It is a hint
	// only; the pipeline classifies from content.
	ContentType string `json:"content_type,omitempty" validate:"omitempty,max=255"`
	// Publish uploads the converted asset to the configured object store
	// and returns its URL instead of inline bytes.
	Publish bool `json:"publish"`
}

// ConvertResponse is the HTTP response for a successful conversion.
type ConvertResponse struct {
	// Format is the output format tag ("image/webp" or "video/webm").
	Format string `json:"format"`
	// DataBase64 is the base64-encoded converted asset (when not published).
	DataBase64 string `json:"data_base64,omitempty"`
	// URL is the published asset URL (when publish was requested).
	URL string `json:"url,omitempty"`
	// Width and Height are the measured output dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`
	// SizeBytes is the output size in bytes.
	SizeBytes int `json:"size_bytes"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
