package gemini

import (
	"fmt"
	"strconv"
)

// Status is a two-digit Gemini response status code.
type Status int

const (
	StatusInput                     Status = 10
	StatusSensitiveInput            Status = 11
	StatusSuccess                   Status = 20
	StatusTemporaryRedirect         Status = 30
	StatusPermanentRedirect         Status = 31
	StatusTemporaryFailure          Status = 40
	StatusServerUnavailable         Status = 41
	StatusCGIError                  Status = 42
	StatusProxyError                Status = 43
	StatusSlowDown                  Status = 44
	StatusPermanentFailure          Status = 50
	StatusNotFound                  Status = 51
	StatusGone                      Status = 52
	StatusProxyRequestRefused       Status = 53
	StatusBadRequest                Status = 59
	StatusClientCertificateRequired Status = 60
	StatusCertificateNotAuthorized  Status = 61
	StatusCertificateNotValid       Status = 62
)

// Category groups statuses by their leading digit.
type Category int

const (
	CategoryInput Category = iota + 1
	CategorySuccess
	CategoryRedirect
	CategoryTemporaryFailure
	CategoryPermanentFailure
	CategoryCertificate
)

func (c Category) String() string {
	switch c {
	case CategoryInput:
		return "input"
	case CategorySuccess:
		return "success"
	case CategoryRedirect:
		return "redirect"
	case CategoryTemporaryFailure:
		return "temporary failure"
	case CategoryPermanentFailure:
		return "permanent failure"
	case CategoryCertificate:
		return "certificate"
	default:
		return "unknown"
	}
}

var statusLabels = map[Status]string{
	StatusInput:                     "input",
	StatusSensitiveInput:            "sensitive input",
	StatusSuccess:                   "success",
	StatusTemporaryRedirect:         "temporary redirect",
	StatusPermanentRedirect:         "permanent redirect",
	StatusTemporaryFailure:          "temporary failure",
	StatusServerUnavailable:         "server unavailable",
	StatusCGIError:                  "CGI error",
	StatusProxyError:                "proxy error",
	StatusSlowDown:                  "slow down",
	StatusPermanentFailure:          "permanent failure",
	StatusNotFound:                  "not found",
	StatusGone:                      "gone",
	StatusProxyRequestRefused:       "proxy request refused",
	StatusBadRequest:                "bad request",
	StatusClientCertificateRequired: "client certificate required",
	StatusCertificateNotAuthorized:  "certificate not authorized",
	StatusCertificateNotValid:       "certificate not valid",
}

// ParseStatus resolves a numeric code against the closed set of known statuses.
func ParseStatus(code int) (Status, error) {
	status := Status(code)
	if _, ok := statusLabels[status]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownStatus, code)
	}
	return status, nil
}

// Label returns the fixed human-readable name of the status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "unknown status " + strconv.Itoa(int(s))
}

// Category returns the semantic group of the status, or 0 for unknown codes.
func (s Status) Category() Category {
	if _, ok := statusLabels[s]; !ok {
		return 0
	}
	switch int(s) / 10 {
	case 1:
		return CategoryInput
	case 2:
		return CategorySuccess
	case 3:
		return CategoryRedirect
	case 4:
		return CategoryTemporaryFailure
	case 5:
		return CategoryPermanentFailure
	case 6:
		return CategoryCertificate
	default:
		return 0
	}
}

func (s Status) String() string {
	return strconv.Itoa(int(s)) + " " + s.Label()
}
