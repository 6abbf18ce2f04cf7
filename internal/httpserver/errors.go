package httpserver

import (
	"errors"
	"net/http"

	"foodorder/internal/cart"
	"foodorder/internal/domain"
	"foodorder/internal/service/auth"
	"foodorder/internal/service/checkout"
	"foodorder/internal/service/menu"
	"foodorder/internal/session"

	"github.com/gin-gonic/gin"
)

// errorResponse is what clients show in an alert.
type errorResponse struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func abortWith(c *gin.Context, status int, title, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Title: title, Message: message})
}

// authFlow maps auth codes to the wording of one screen.
type authFlow struct {
	title    string
	fallback string
	messages map[string]string
	// titles overrides the alert title for input problems caught before the
	// request reaches the provider.
	titles map[string]string
}

var (
	loginFlow = authFlow{
		title:    "Login Failed",
		fallback: "An error occurred. Please try again.",
		messages: map[string]string{
			auth.CodeUserNotFound:    "No account found with this email address.",
			auth.CodeWrongPassword:   "Incorrect password. Please try again.",
			auth.CodeInvalidEmail:    "Please enter a valid email address.",
			auth.CodeTooManyRequests: "Too many failed attempts. Please try again later.",
			auth.CodeNetworkFailed:   "Network error. Please check your connection.",
			auth.CodeMissingFields:   "Please enter both email and password.",
			auth.CodeInvalidPassword: "Password must be at least 6 characters long.",
		},
		titles: map[string]string{
			auth.CodeMissingFields:   "Missing Fields",
			auth.CodeInvalidEmail:    "Invalid Email",
			auth.CodeInvalidPassword: "Invalid Password",
		},
	}
	signUpFlow = authFlow{
		title:    "Sign-Up Failed",
		fallback: "An error occurred. Please try again.",
		messages: map[string]string{
			auth.CodeMissingFields:    "Please fill in all fields.",
			auth.CodePasswordMismatch: "Passwords do not match.",
		},
		titles: map[string]string{
			auth.CodeMissingFields:    "Missing Fields",
			auth.CodePasswordMismatch: "Password Mismatch",
		},
	}
	resetFlow = authFlow{
		title:    "Reset Failed",
		fallback: "Failed to send reset email. Please try again.",
		messages: map[string]string{
			auth.CodeUserNotFound:    "No account found with this email address. Please check your email or create a new account.",
			auth.CodeInvalidEmail:    "Please enter a valid email address.",
			auth.CodeNetworkFailed:   "Network error. Please check your internet connection.",
			auth.CodeTooManyRequests: "Too many requests. Please wait a moment before trying again.",
			auth.CodeMissingFields:   "Please enter your email address.",
		},
		titles: map[string]string{
			auth.CodeMissingFields: "Missing Email",
			auth.CodeInvalidEmail:  "Invalid Email",
		},
	}
	changePasswordFlow = authFlow{
		title:    "Password Change Failed",
		fallback: "Failed to change password. Please try again.",
		messages: map[string]string{
			auth.CodeWrongPassword:    "Current password is incorrect.",
			auth.CodeWeakPassword:     "New password is too weak.",
			auth.CodeRequiresRecent:   "Please log out and log back in before changing your password.",
			auth.CodeMissingFields:    "Please fill in all password fields.",
			auth.CodePasswordMismatch: "New passwords do not match.",
		},
		titles: map[string]string{
			auth.CodeMissingFields:    "Missing Fields",
			auth.CodePasswordMismatch: "Password Mismatch",
		},
	}
)

// describe returns the alert for err. Unknown codes show the raw message.
func (f authFlow) describe(err error) errorResponse {
	var aerr *auth.Error
	if !errors.As(err, &aerr) {
		if err == nil {
			return errorResponse{Title: f.title, Message: f.fallback}
		}
		return errorResponse{Title: f.title, Message: err.Error()}
	}
	out := errorResponse{Title: f.title, Message: aerr.Message, Code: aerr.Code}
	if msg, ok := f.messages[aerr.Code]; ok {
		out.Message = msg
	}
	if title, ok := f.titles[aerr.Code]; ok {
		out.Title = title
	}
	return out
}

func authStatus(code string) int {
	switch code {
	case auth.CodeUserNotFound, auth.CodeWrongPassword:
		return http.StatusUnauthorized
	case auth.CodeNoCurrentUser, auth.CodeInvalidToken, auth.CodeRequiresRecent:
		return http.StatusUnauthorized
	case auth.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case auth.CodeEmailInUse:
		return http.StatusConflict
	case auth.CodeNetworkFailed:
		return http.StatusServiceUnavailable
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (a *api) authError(c *gin.Context, f authFlow, err error) {
	code := auth.CodeOf(err)
	status := authStatus(code)
	if status >= 500 {
		a.logger.Error().Err(err).Str("flow", f.title).Msg("auth request failed")
	}
	c.AbortWithStatusJSON(status, f.describe(err))
}

// failure maps a service error to a response. title and fallback are used for
// errors that carry no user-facing text of their own.
func (a *api) failure(c *gin.Context, err error, title, fallback string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		abortWith(c, http.StatusBadRequest, verr.Title, verr.Message)
	case errors.Is(err, domain.ErrNotFound):
		abortWith(c, http.StatusNotFound, "Not Found", "The requested item no longer exists.")
	case errors.Is(err, domain.ErrForbidden):
		abortWith(c, http.StatusForbidden, "Forbidden", "You can only change your own items.")
	case errors.Is(err, domain.ErrAlreadyExists):
		abortWith(c, http.StatusConflict, title, "This request was already used for another order.")
	case errors.Is(err, checkout.ErrEmptyCart):
		abortWith(c, http.StatusBadRequest, "Empty Cart", "Please add some items to your cart first.")
	case errors.Is(err, cart.ErrInvalidQuantity):
		abortWith(c, http.StatusBadRequest, "Invalid Quantity", "Quantity must be at least 1.")
	case errors.Is(err, cart.ErrMissingProduct), errors.Is(err, cart.ErrInvalidPrice):
		abortWith(c, http.StatusBadRequest, "Invalid Item", "This item cannot be added to your cart.")
	case errors.Is(err, menu.ErrUploadFailed):
		a.logger.Error().Err(err).Msg("image upload failed")
		abortWith(c, http.StatusBadGateway, "Upload Failed", "Failed to upload image to Azure. Please try again.")
	case errors.Is(err, session.ErrSessionNotFound):
		abortWith(c, http.StatusNotFound, "Session Expired", "Please restart the app.")
	default:
		a.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg(title)
		abortWith(c, http.StatusInternalServerError, title, fallback)
	}
}

func badRequest(c *gin.Context) {
	abortWith(c, http.StatusBadRequest, "Invalid Request", "The request body could not be read.")
}
