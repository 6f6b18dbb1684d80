package domain

import "errors"

var (
	ErrNotFound        = errors.New("project not found")
	ErrForbidden       = errors.New("caller lacks the required role on this project")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrVersionConflict = errors.New("project was modified concurrently, retry with fresh state")
	ErrNotInReview     = errors.New("project is not awaiting review")
)
