package runs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call
type Kind int

const (
	Unknown Kind = iota
	NetworkFailure
	NotFound
	Unauthorized
	Forbidden
	ValidationFailure
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case ValidationFailure:
		return "validation_failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is, one per kind
var (
	ErrNetworkFailure    = fmt.Errorf("network failure")
	ErrNotFound          = fmt.Errorf("not found")
	ErrUnauthorized      = fmt.Errorf("unauthorized")
	ErrForbidden         = fmt.Errorf("forbidden")
	ErrValidationFailure = fmt.Errorf("validation failure")
	ErrUnknown           = fmt.Errorf("unknown error")
)

var sentinels = map[Kind]error{
	Unknown:           ErrUnknown,
	NetworkFailure:    ErrNetworkFailure,
	NotFound:          ErrNotFound,
	Unauthorized:      ErrUnauthorized,
	Forbidden:         ErrForbidden,
	ValidationFailure: ErrValidationFailure,
}

// Error is returned by every Client method
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(sentinels[e.Kind].Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status code %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf returns the kind of err, or Unknown for foreign errors
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return Unknown
}

// Message turns any error into the one-line text shown to a user
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *Error
	if !errors.As(err, &re) {
		return err.Error()
	}
	switch re.Kind {
	case NetworkFailure:
		return "could not reach the server"
	case NotFound:
		return "run not found"
	case Unauthorized:
		return "session expired, please sign in again"
	case Forbidden:
		return "you do not have permission to do that"
	case ValidationFailure:
		if re.Message != "" {
			return re.Message
		}
		return "the request was rejected"
	default:
		if re.Message != "" {
			return re.Message
		}
		return "failed to load runs"
	}
}

// apiErrorBody is the backend's error envelope; older builds used message/error
type apiErrorBody struct {
	Erro     string `json:"erro"`
	Detalhes string `json:"detalhes"`
	Message  string `json:"message"`
	Error    string `json:"error"`
}

func (b apiErrorBody) text() string {
	switch {
	case b.Erro != "" && b.Detalhes != "":
		return b.Erro + ": " + b.Detalhes
	case b.Erro != "":
		return b.Erro
	case b.Detalhes != "":
		return b.Detalhes
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}

// kindForStatus maps a non-2xx status onto the taxonomy
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusUnauthorized:
		return Unauthorized
	case status == http.StatusForbidden:
		return Forbidden
	case status >= 400 && status < 500:
		return ValidationFailure
	default:
		return Unknown
	}
}

// statusError builds the Error for a non-2xx response body
func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Kind: kindForStatus(status), Status: status}
	var parsed apiErrorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		e.Message = parsed.text()
	}
	if e.Message == "" && e.Kind == ValidationFailure {
		e.Message = strings.ToLower(http.StatusText(status))
	}
	return e
}
