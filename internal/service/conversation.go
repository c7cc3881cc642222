package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Conversation is an opaque text-in, text-out chat service.
type Conversation interface {
	Converse(ctx context.Context, prompt string) (string, error)
}

// Failure categories of a Conversation call. Providers wrap one of these
// (or return a *StatusError) so the assistant can tell the user what broke.
var (
	ErrMissingCredential = errors.New("conversation service credential not configured")
	ErrTransport         = errors.New("conversation service unreachable")
	ErrMalformedResponse = errors.New("conversation service returned an unreadable response")
)

// StatusError is a non-2xx response from the conversation service.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.StatusCode, e.Body)
}

// Failure messages shown to the user, one per category.
const (
	MsgMissingCredential = "The assistant is not configured yet: no API key has been set for the conversation service."
	MsgTransport         = "I couldn't reach the assistant service. Please check your connection and try again."
	MsgRateLimited       = "The assistant service is busy right now (rate limited). Please try again in a moment."
	MsgStatusAuth        = "The assistant service rejected our credentials (HTTP %d). Please check the API key."
	MsgStatus            = "The assistant service returned an error (HTTP %d). Please try again."
	MsgMalformed         = "The assistant service sent a response I couldn't read. Please try again."
	MsgUnknown           = "Sorry, I encountered an error. Please try again."
)

// FailureMessage maps a Converse error to the user-legible text of the
// assistant turn that reports it.
func FailureMessage(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return MsgMissingCredential
	case errors.As(err, &statusErr):
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			return MsgRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Sprintf(MsgStatusAuth, statusErr.StatusCode)
		default:
			return fmt.Sprintf(MsgStatus, statusErr.StatusCode)
		}
	case errors.Is(err, ErrMalformedResponse):
		return MsgMalformed
	case errors.Is(err, ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return MsgTransport
	default:
		return MsgUnknown
	}
}

// FailureCategory is a short label for logs and metrics.
func FailureCategory(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrTransport), errors.Is(err, context.DeadlineExceeded):
		return "transport"
	default:
		return "unknown"
	}
}

// truncateBody keeps error bodies short enough for logs.
func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
