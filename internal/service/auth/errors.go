package auth

import (
	"errors"
	"fmt"
)

// Error codes reported to clients. They follow the codes of the managed auth
// provider the mobile app was written against.
const (
	CodeUserNotFound       = "auth/user-not-found"
	CodeWrongPassword      = "auth/wrong-password"
	CodeInvalidEmail       = "auth/invalid-email"
	CodeInvalidPassword    = "auth/invalid-password"
	CodeTooManyRequests    = "auth/too-many-requests"
	CodeNetworkFailed      = "auth/network-request-failed"
	CodeWeakPassword       = "auth/weak-password"
	CodeRequiresRecent     = "auth/requires-recent-login"
	CodeEmailInUse         = "auth/email-already-in-use"
	CodeMissingFields      = "auth/missing-fields"
	CodePasswordMismatch   = "auth/password-mismatch"
	CodeInvalidToken       = "auth/invalid-user-token"
	CodeInvalidActionCode  = "auth/invalid-action-code"
	CodeNoCurrentUser      = "auth/no-current-user"
	CodeInvalidRole        = "auth/invalid-role"
)

// Error is an auth failure with a stable code.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so wrapped copies compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrUserNotFound      = &Error{Code: CodeUserNotFound, Message: "There is no user record corresponding to this identifier."}
	ErrWrongPassword     = &Error{Code: CodeWrongPassword, Message: "The password is invalid."}
	ErrInvalidEmail      = &Error{Code: CodeInvalidEmail, Message: "The email address is badly formatted."}
	ErrInvalidPassword   = &Error{Code: CodeInvalidPassword, Message: "Password must be at least 6 characters long."}
	ErrTooManyRequests   = &Error{Code: CodeTooManyRequests, Message: "Access to this account has been temporarily disabled due to many failed login attempts."}
	ErrWeakPassword      = &Error{Code: CodeWeakPassword, Message: "Password should be at least 6 characters."}
	ErrRequiresRecent    = &Error{Code: CodeRequiresRecent, Message: "This operation requires a recent sign-in."}
	ErrEmailInUse        = &Error{Code: CodeEmailInUse, Message: "The email address is already in use by another account."}
	ErrMissingFields     = &Error{Code: CodeMissingFields, Message: "Please fill in all fields."}
	ErrPasswordMismatch  = &Error{Code: CodePasswordMismatch, Message: "Passwords do not match."}
	ErrInvalidToken      = &Error{Code: CodeInvalidToken, Message: "The user's credential is no longer valid."}
	ErrInvalidActionCode = &Error{Code: CodeInvalidActionCode, Message: "The reset code is invalid or expired."}
	ErrNoCurrentUser     = &Error{Code: CodeNoCurrentUser, Message: "No user is signed in."}
	ErrInvalidRole       = &Error{Code: CodeInvalidRole, Message: "Please choose customer or restaurant."}
)

// networkError wraps a backend failure as a network-request-failed error.
func networkError(err error) error {
	return &Error{Code: CodeNetworkFailed, Message: "A network error has occurred.", Err: err}
}

// CodeOf returns the auth code carried by err, or "" when there is none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
