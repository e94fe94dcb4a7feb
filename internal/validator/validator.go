// Package validator provides input validation for the request boundary.
// The repositories and the attachment gateway only ever see arguments
// that passed these checks.
package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrEmptyInput      = errors.New("input cannot be empty")
	ErrInputTooLong    = errors.New("input exceeds maximum length")
	ErrInvalidUsername = errors.New("invalid username format")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
)

// Field limits, matching the persisted column sizes.
const (
	MaxUsernameLength = 150
	MaxSubjectLength  = 255
	MaxBodyLength     = 4000
	MaxFilenameLength = 100
)

// usernameRegex: alphanumeric plus dots, underscores and hyphens,
// starting with an alphanumeric, at least 3 characters.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{2,149}$`)

// ValidateUsername validates a username used for recipient resolution.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if username == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return ErrInputTooLong
	}
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateSubject validates a message subject.
func ValidateSubject(subject string) error {
	if strings.TrimSpace(subject) == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(subject) > MaxSubjectLength {
		return ErrInputTooLong
	}
	return nil
}

// ValidateBody validates a message body.
func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return ErrInputTooLong
	}
	return nil
}

// ValidateFilename validates an attachment display name. Path
// separators are rejected outright; the storage key is generated
// separately, so the name is display-only but still must not smuggle
// path components into response headers.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(filename) > MaxFilenameLength {
		return ErrInputTooLong
	}
	if strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return ErrInvalidFilename
	}
	return nil
}

// ValidateAttachmentSize checks an upload against the configured limit.
func ValidateAttachmentSize(size, maxSize int64) error {
	if maxSize > 0 && size > maxSize {
		return ErrFileTooLarge
	}
	return nil
}
