// Package respond owns the canonical JSON error envelope and the executor
// that writes prepared results onto an in-flight response from outside the
// normal handler dispatch.
package respond

import (
	"net/http"
	"strings"
)

// ShieldMessage is the fixed text returned whenever internal detail must not
// reach the caller. It is deliberately non-localizable.
const ShieldMessage = "an internal error has occurred"

// Envelope is a prepared error result: a status code plus the body to
// serialize. It is constructed exactly once per failing request and never
// partially populated.
type Envelope struct {
	Status int
	Body   any
}

// Factory builds envelopes with the deployment's configured body field name
// ("message" or "error"). One deployment uses exactly one field; the choice
// is fixed at startup.
type Factory struct {
	field string
}

// NewFactory returns a Factory for the given field name. Anything other than
// "error" falls back to "message".
func NewFactory(field string) Factory {
	if field != "error" {
		field = "message"
	}
	return Factory{field: field}
}

// Field returns the configured envelope field name.
func (f Factory) Field() string { return f.field }

// Message builds a message-only envelope. Blank or whitespace-only text is
// replaced by the shield message; a zero status becomes 500.
func (f Factory) Message(status int, text string) Envelope {
	if strings.TrimSpace(text) == "" {
		text = ShieldMessage
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Envelope{Status: status, Body: map[string]string{f.field: text}}
}

// Payload builds an envelope around an arbitrary body. A nil body falls back
// to the shield message; a zero status becomes 500.
func (f Factory) Payload(status int, body any) Envelope {
	if body == nil {
		return f.Message(status, ShieldMessage)
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Envelope{Status: status, Body: body}
}
