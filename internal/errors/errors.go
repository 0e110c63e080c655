// Package errors provides custom error types for the TechSolve client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrMissingAPIKey   = errors.New("API key is not defined")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoContent       = errors.New("no content in response")
	ErrInvalidImage    = errors.New("invalid image attachment")
	ErrUnknownCategory = errors.New("unknown category")
)

// APIError represents a failed call to the model service
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Model      string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] for %s: %s", e.StatusCode, e.Model, e.Message)
	}
	return fmt.Sprintf("API error for %s: %s", e.Model, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, model, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Model:      model,
		Message:    message,
	}
}

// WrapAPIError wraps a transport or service failure for the given model
func WrapAPIError(model string, err error) *APIError {
	return &APIError{
		Model:   model,
		Message: err.Error(),
		Err:     err,
	}
}

// ConfigError represents a configuration problem detected at startup
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error [%s]: %s", e.Key, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(key, message string, err error) *ConfigError {
	return &ConfigError{Key: key, Message: message, Err: err}
}

// ImageError represents a failure loading or decoding an image attachment
type ImageError struct {
	Path    string
	Message string
}

func (e *ImageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("image error: %s", e.Message)
	}
	return fmt.Sprintf("image error [%s]: %s", e.Path, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ImageError) Is(target error) bool {
	if target == ErrInvalidImage {
		return true
	}
	_, ok := target.(*ImageError)
	return ok
}

// NewImageError creates a new ImageError
func NewImageError(path, message string) *ImageError {
	return &ImageError{Path: path, Message: message}
}

// IsAPIError reports whether err is or wraps an APIError
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsAuthError reports whether the service rejected the credential
func IsAuthError(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	status := GetHTTPStatus(err)
	return status == 401 || status == 403
}

// IsRateLimitError reports whether the service rejected the call for quota reasons
func IsRateLimitError(err error) bool {
	return GetHTTPStatus(err) == 429
}

// IsImageError reports whether err is or wraps an ImageError
func IsImageError(err error) bool {
	return errors.Is(err, ErrInvalidImage)
}

// GetHTTPStatus returns the HTTP status carried by an APIError, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
