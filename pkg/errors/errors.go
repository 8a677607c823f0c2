/*
 * Copyright 2026 The learn-supabase Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package errors provides errors carrying a status code, so that transports
// can report a failure to clients without inspecting error messages.
package errors

import (
	"errors"
	"net/http"
)

// StatusCode represents the status of a failed operation.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the caller sent a malformed value.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that the requested entity does not exist.
	ErrCodeNotFound StatusCode = 5

	// ErrCodePermissionDenied indicates that the caller may not perform the operation.
	ErrCodePermissionDenied StatusCode = 7

	// ErrCodeResourceExhausted indicates that a limit has been reached.
	ErrCodeResourceExhausted StatusCode = 8

	// ErrCodeFailedPrecondition indicates that the operation does not fit the
	// current state of the target.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeInternal indicates a broken invariant on the server side.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates that the service is shutting down or not ready.
	ErrCodeUnavailable StatusCode = 14

	// ErrCodeUnauthenticated indicates missing or invalid credentials.
	ErrCodeUnauthenticated StatusCode = 16
)

// String returns the string representation of the status code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodePermissionDenied:
		return "permission_denied"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	case ErrCodeUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// HTTPStatus returns the HTTP status matching this code.
func (c StatusCode) HTTPStatus() int {
	switch c {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeResourceExhausted:
		return http.StatusTooManyRequests
	case ErrCodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// StatusFromHTTP returns the status code matching the given HTTP status.
func StatusFromHTTP(httpStatus int) StatusCode {
	switch httpStatus {
	case http.StatusBadRequest:
		return ErrCodeInvalidArgument
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusForbidden:
		return ErrCodePermissionDenied
	case http.StatusTooManyRequests:
		return ErrCodeResourceExhausted
	case http.StatusPreconditionFailed:
		return ErrCodeFailedPrecondition
	case http.StatusServiceUnavailable:
		return ErrCodeUnavailable
	case http.StatusUnauthorized:
		return ErrCodeUnauthenticated
	default:
		return ErrCodeInternal
	}
}

// StatusError is an error that carries a status code and a short code name.
type StatusError interface {
	error
	Status() StatusCode
	Code() string
	WithCode(code string) StatusError
}

type errorWithStatus struct {
	err    error
	status StatusCode
	code   string
}

func (e errorWithStatus) Error() string {
	return e.err.Error()
}

func (e errorWithStatus) Status() StatusCode {
	return e.status
}

func (e errorWithStatus) Code() string {
	return e.code
}

func (e errorWithStatus) Unwrap() error {
	return e.err
}

// WithCode returns a copy of this error with the given code name.
func (e errorWithStatus) WithCode(code string) StatusError {
	return errorWithStatus{
		err:    e.err,
		status: e.status,
		code:   code,
	}
}

func newError(message string, status StatusCode) StatusError {
	return errorWithStatus{err: errors.New(message), status: status}
}

// New creates a new error with the given status.
func New(message string, status StatusCode) StatusError {
	return newError(message, status)
}

// InvalidArgument creates a new "invalid argument" error.
func InvalidArgument(message string) StatusError {
	return newError(message, ErrCodeInvalidArgument)
}

// NotFound creates a new "not found" error.
func NotFound(message string) StatusError {
	return newError(message, ErrCodeNotFound)
}

// PermissionDenied creates a new "permission denied" error.
func PermissionDenied(message string) StatusError {
	return newError(message, ErrCodePermissionDenied)
}

// ResourceExhausted creates a new "resource exhausted" error.
func ResourceExhausted(message string) StatusError {
	return newError(message, ErrCodeResourceExhausted)
}

// FailedPrecond creates a new "failed precondition" error.
func FailedPrecond(message string) StatusError {
	return newError(message, ErrCodeFailedPrecondition)
}

// Internal creates a new "internal" error.
func Internal(message string) StatusError {
	return newError(message, ErrCodeInternal)
}

// Unavailable creates a new "unavailable" error.
func Unavailable(message string) StatusError {
	return newError(message, ErrCodeUnavailable)
}

// Unauthenticated creates a new "unauthenticated" error.
func Unauthenticated(message string) StatusError {
	return newError(message, ErrCodeUnauthenticated)
}

// StatusOf returns the status of the first StatusError in the chain of err,
// or ErrCodeInternal if there is none. It returns 0 for a nil error.
func StatusOf(err error) StatusCode {
	if err == nil {
		return 0
	}

	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status()
	}

	return ErrCodeInternal
}

// CodeOf returns the code name of the first StatusError in the chain of err.
func CodeOf(err error) string {
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code()
	}
	return ""
}

// IsStatus checks if the given error has the given status.
func IsStatus(err error, status StatusCode) bool {
	return StatusOf(err) == status
}
