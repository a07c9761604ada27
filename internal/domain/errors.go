package domain

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindToken
	KindConflict
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindToken:
		return "token"
	case KindConflict:
		return "conflict"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Status maps the kind to the HTTP status every error of that kind gets.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindToken, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

const (
	CodeEmptyEmail          = "AUTH_EMPTY_EMAIL"
	CodeEmptyPassword       = "AUTH_EMPTY_PASSWORD"
	CodeInvalidEmailFormat  = "AUTH_INVALID_EMAIL_FORMAT"
	CodeValidationError     = "AUTH_VALIDATION_ERROR"
	CodeInvalidRequest      = "AUTH_INVALID_REQUEST"
	CodeInvalidCredentials  = "AUTH_INVALID_CREDENTIALS"
	CodeEmailAlreadyExists  = "AUTH_EMAIL_ALREADY_EXISTS"
	CodeInvalidToken        = "AUTH_INVALID_TOKEN"
	CodeTokensRequired      = "AUTH_TOKENS_REQUIRED"
	CodeServerError         = "AUTH_SERVER_ERROR"
	CodeUnauthorized        = "AUTH_UNAUTHORIZED"
	CodeRefreshTokenMissing = "REFRESH_TOKEN_REQUIRED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeUserNotIdentified   = "USER_NOT_IDENTIFIED"

	CodeTokenRevoked      = "TOKEN_REVOKED"
	CodeAllTokensRevoked  = "ALL_TOKENS_REVOKED"
	CodeUserInfoRetrieved = "USER_INFO_RETRIEVED"
)

// Error is the failure type returned by the session service. Code is stable
// for clients; Err carries the internal cause and is never rendered.
type Error struct {
	Kind   Kind
	Code   string
	Params map[string]any
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Code + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func (e *Error) Status() int { return e.Kind.Status() }

func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

func Validation(code string) *Error     { return New(KindValidation, code) }
func Authentication(code string) *Error { return New(KindAuthentication, code) }
func Token(code string) *Error          { return New(KindToken, code) }
func Conflict(code string) *Error       { return New(KindConflict, code) }

func Server(err error) *Error {
	return &Error{Kind: KindServer, Code: CodeServerError, Err: err}
}

// WithParam returns a copy of e with key set, leaving e untouched so the
// package-level errors can be decorated safely.
func (e *Error) WithParam(key string, value any) *Error {
	cp := *e
	cp.Params = make(map[string]any, len(e.Params)+1)
	for k, v := range e.Params {
		cp.Params[k] = v
	}
	cp.Params[key] = value
	return &cp
}

// As extracts a *Error from err. Anything else is reported as a server error.
func As(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return Server(err)
}

var (
	ErrEmptyEmail         = Validation(CodeEmptyEmail)
	ErrEmptyPassword      = Validation(CodeEmptyPassword)
	ErrInvalidEmailFormat = Validation(CodeInvalidEmailFormat)
	ErrValidation         = Validation(CodeValidationError)
	ErrInvalidRequest     = Validation(CodeInvalidRequest)
	ErrInvalidCredentials = Authentication(CodeInvalidCredentials)
	ErrUnauthorized       = Authentication(CodeUnauthorized)
	ErrEmailExists        = Conflict(CodeEmailAlreadyExists)
	ErrInvalidToken       = Token(CodeInvalidToken)
	ErrTokensRequired     = Token(CodeTokensRequired)
	ErrRefreshMissing     = Validation(CodeRefreshTokenMissing)
	ErrInvalidRefresh     = Token(CodeInvalidRefreshToken)
	ErrUserNotIdentified  = Validation(CodeUserNotIdentified)
	ErrServer             = &Error{Kind: KindServer, Code: CodeServerError}
)
