package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrMembershipNotFound is returned when a user has no membership in a team
	ErrMembershipNotFound = errors.New("membership not found")

	// ErrDuplicate is returned when a write violates a uniqueness rule
	ErrDuplicate = errors.New("duplicate record")
)

// IsUniqueViolation reports whether err comes from a unique index. GORM's
// TranslateError covers both dialects; the string checks catch connections
// opened without it.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	if IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
