package service

import (
	"errors"

	"github.com/S1riyS/graphfs/internal/pkg/apperrors"
)

type ServiceError struct {
	Code    int64
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) GetCode() int64 {
	return e.Code
}

func NewNotFound(message string) *ServiceError {
	return &ServiceError{Code: apperrors.NotFound, Message: message}
}

func NewValidation(message string) *ServiceError {
	return &ServiceError{Code: apperrors.Validation, Message: message}
}

// CodeOf returns the service code carried by err, or 0 for foreign errors.
func CodeOf(err error) int64 {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return 0
}
