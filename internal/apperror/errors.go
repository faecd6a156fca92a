package apperror

import (
	"errors"
	"fmt"
)

// Code classifies an error for retry policy and HTTP mapping.
type Code string

const (
	CodeValidation    Code = "validation"
	CodeNotFound      Code = "not_found"
	CodeRateLimited   Code = "rate_limited"
	CodeTransient     Code = "transient"
	CodeAuth          Code = "auth"
	CodeBadRequest    Code = "bad_request"
	CodePoolExhausted Code = "pool_exhausted"
	CodeParse         Code = "parse"
	CodePersistence   Code = "persistence"
	CodeInternal      Code = "internal"
)

type AppError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the classification of err, or CodeInternal for plain errors.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Retryable reports whether the error class is worth retrying at all.
// Auth and bad-request failures never are; validation is a caller problem.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeRateLimited, CodeTransient:
		return true
	default:
		return false
	}
}
