package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so a value produced by WithError still satisfies
// errors.Is against the predefined error it was derived from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrIdentityNotFound = &AppError{
		Code:       "IDENTITY_NOT_FOUND",
		Message:    "Identity not found",
		StatusCode: 404,
	}

	ErrIllegalArgument = &AppError{
		Code:       "ILLEGAL_ARGUMENT",
		Message:    "Name and relation are required",
		StatusCode: 422,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	// Transient; frame pipelines absorb it instead of surfacing it.
	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrNoSamplesCaptured = &AppError{
		Code:       "NO_SAMPLES_CAPTURED",
		Message:    "No faces captured, try again",
		StatusCode: 422,
	}

	ErrDeviceUnavailable = &AppError{
		Code:       "DEVICE_UNAVAILABLE",
		Message:    "Unable to access camera",
		StatusCode: 503,
	}

	ErrSessionActive = &AppError{
		Code:       "SESSION_ACTIVE",
		Message:    "A capture session is already running",
		StatusCode: 409,
	}

	ErrNotCapturing = &AppError{
		Code:       "NOT_CAPTURING",
		Message:    "No capture session is running",
		StatusCode: 409,
	}

	// Logged only
	ErrCorruptRecord = &AppError{
		Code:       "CORRUPT_RECORD",
		Message:    "Stored embedding has an invalid length",
		StatusCode: 500,
	}

	ErrAssetDeleteFailed = &AppError{
		Code:       "ASSET_DELETE_FAILED",
		Message:    "Failed to remove face image",
		StatusCode: 500,
	}
)
