package wellness

import "errors"

// Error kinds. Match them with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Client-facing messages.
const (
	MsgCredentialsRequired      = "Email and password required"
	MsgLoginCredentialsRequired = "Email and password are required"
	MsgUserExists               = "User already exists"
	MsgUserCreated              = "User created successfully"
	MsgInvalidCredentials       = "Invalid email or password"
	MsgUnknownUser              = "User does not exist"
	MsgInvalidPassword          = "Invalid password"
	MsgInvalidToken             = "Invalid Token"
	MsgUserNotFound             = "User not found"
	MsgTitleRequired            = "Title is required"
	MsgSessionNotFound          = "Session not found"
	MsgDraftSaved               = "Session draft saved successfully"
	MsgSessionIDRequired        = "Session id is required"
	MsgSessionAccessDenied      = "Session not found or access denied"
	MsgSessionPublished         = "Session published successfully"
)

// Error is a categorized failure carrying the message shown to clients.
type Error struct {
	Kind    error
	Message string
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// AsError extracts a categorized error; ok is false for internal failures.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind != nil {
		return e, true
	}
	return nil, false
}
