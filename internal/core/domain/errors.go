package domain

import "errors"

// Sentinel errors for the transition pipeline. The API layer maps each class
// to a fixed HTTP status; Conflict is the only class callers should retry.
var ErrInvalidTransition = errors.New("invalid status transition")
var ErrUnauthorized = errors.New("actor not permitted")
var ErrConflict = errors.New("version conflict")
var ErrValidation = errors.New("validation failed")
var ErrNotFound = errors.New("entity not found")

// Auth errors.
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
