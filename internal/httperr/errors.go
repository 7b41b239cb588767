// Package httperr defines the tagged error kinds the request pipeline gives
// bespoke handling to. Handlers below the shielding middleware never write
// error responses themselves; they attach one of these (or any other error)
// to the gin context and abort, letting the shield own response authorship.
package httperr

import (
	"errors"
	"fmt"
)

// NotFoundError is the domain "not found" failure. Unlike generic failures
// its message is considered safe and is passed through to the caller.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "not found"
	}
	return e.Message
}

// NotFound wraps msg as a domain not-found failure.
func NotFound(msg string) error {
	return &NotFoundError{Message: msg}
}

// NotFoundf formats a domain not-found failure.
func NotFoundf(format string, v ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, v...)}
}

// IsNotFound reports whether err is (or wraps) a domain not-found failure.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// PayloadTooLarge signals that a request body exceeded the configured upload
// limit. The transport layer raises it as a typed value so detection never
// depends on message wording.
type PayloadTooLarge struct {
	MaxBytes int64
}

func (e *PayloadTooLarge) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.MaxBytes)
}
