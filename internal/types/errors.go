package types

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Listener errors
	ErrListenerNotFound ErrorCode = "LISTENER_NOT_FOUND"
	ErrListenerInactive ErrorCode = "LISTENER_INACTIVE"
	ErrChannelNotAllowed ErrorCode = "CHANNEL_NOT_ALLOWED"
	ErrPlayLimitReached ErrorCode = "PLAY_LIMIT_REACHED"

	// Session errors
	ErrSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrSessionCapacity ErrorCode = "SESSION_CAPACITY"

	// Input errors
	ErrInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
	ErrInvalidArgument      ErrorCode = "INVALID_ARGUMENT"
	ErrInvalidCommand       ErrorCode = "INVALID_COMMAND"

	// Platform errors
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrNetworkError     ErrorCode = "NETWORK_ERROR"
	ErrRateLimited      ErrorCode = "RATE_LIMITED"

	// System errors
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// GameError represents a game-related error
type GameError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GameError) Unwrap() error {
	return e.Err
}

// NewGameError creates a new GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a GameError
func WrapError(code ErrorCode, message string, err error) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsGameError checks if an error is a GameError and has a specific code
func IsGameError(err error, code ErrorCode) bool {
	var gameErr *GameError
	if err == nil {
		return false
	}
	if ok := As(err, &gameErr); !ok {
		return false
	}
	return gameErr.Code == code
}

// As finds the first GameError in err's chain
func As(err error, target **GameError) bool {
	if target == nil || err == nil {
		return false
	}
	return errors.As(err, target)
}

// FromDiscord classifies an error returned by a discordgo REST call.
// Errors that are not REST errors are returned as network errors.
func FromDiscord(err error, message string) *GameError {
	if err == nil {
		return nil
	}
	var gameErr *GameError
	if As(err, &gameErr) {
		return gameErr
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden, http.StatusUnauthorized:
			return WrapError(ErrPermissionDenied, message, err)
		case http.StatusNotFound:
			return WrapError(ErrNotFound, message, err)
		case http.StatusTooManyRequests:
			return WrapError(ErrRateLimited, message, err)
		}
	}
	return WrapError(ErrNetworkError, message, err)
}

// IsTransient reports whether err belongs to the platform failures that
// are logged and otherwise ignored: forbidden, not found, rate limited and
// generic network failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	switch FromDiscord(err, "").Code {
	case ErrPermissionDenied, ErrNotFound, ErrRateLimited, ErrNetworkError:
		return true
	}
	return false
}
