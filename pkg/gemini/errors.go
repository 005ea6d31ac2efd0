package gemini

import (
	"errors"
	"fmt"
)

// Standard error kinds for a fetch. Every *FetchError wraps exactly one of them.
var (
	ErrEmptyQuery       = errors.New("empty search")
	ErrBadURL           = errors.New("bad url")
	ErrConnectionFailed = errors.New("connection failed")
	ErrDecode           = errors.New("malformed response")
	ErrInvalidRedirect  = errors.New("invalid redirect")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrUnsupported      = errors.New("unsupported operation")
	ErrUpstream         = errors.New("upstream failure")
	ErrInputRequired    = errors.New("input required")
)

// Finer causes that are folded into one of the kinds above.
var (
	ErrUnknownStatus    = errors.New("unknown status code")
	ErrResponseTooLarge = errors.New("response exceeds size limit")
)

// FetchError describes why a fetch stopped without producing a document.
type FetchError struct {
	Kind   error
	URL    string
	Status Status
	Meta   string
	Err    error
}

func (fe *FetchError) Error() string {
	if fe.Err != nil && errors.Is(fe.Err, fe.Kind) {
		return fe.Err.Error()
	}
	msg := fe.Kind.Error()
	if fe.Status != 0 && (fe.Kind == ErrUpstream || fe.Kind == ErrUnsupported) {
		msg += ": " + fe.Status.Label()
		if fe.Meta != "" {
			msg += ": " + fe.Meta
		}
	}
	if fe.URL != "" {
		msg = fmt.Sprintf("%s (%s)", msg, fe.URL)
	}
	if fe.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, fe.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is and errors.As.
func (fe *FetchError) Unwrap() []error {
	if fe.Err == nil {
		return []error{fe.Kind}
	}
	return []error{fe.Kind, fe.Err}
}

func newFetchError(kind error, target string, err error) *FetchError {
	return &FetchError{Kind: kind, URL: target, Err: err}
}

// HumanMessage returns the short string shown to the user in place of a document.
func HumanMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case ErrUpstream:
			return fe.Status.Label()
		case ErrInputRequired:
			if fe.Meta != "" {
				return fe.Meta
			}
			return "ERROR: input required"
		case ErrUnsupported:
			return "ERROR: unsupported: " + fe.Status.Label()
		}
	}
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return "ERROR: empty search"
	case errors.Is(err, ErrBadURL):
		return "ERROR: Bad url"
	case errors.Is(err, ErrConnectionFailed):
		return "ERROR: connection fail"
	case errors.Is(err, ErrDecode):
		return "ERROR: malformed response"
	case errors.Is(err, ErrInvalidRedirect):
		return "ERROR: Invalid redirect"
	case errors.Is(err, ErrTooManyRedirects):
		return "ERROR: too many redirects"
	default:
		return "ERROR: Unknown ;("
	}
}
