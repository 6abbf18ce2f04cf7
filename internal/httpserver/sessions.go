package httpserver

import (
	"errors"
	"io"
	"net/http"
	"time"

	"foodorder/internal/domain"
	"foodorder/internal/service/auth"
	"foodorder/internal/session"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

type sessionResponse struct {
	ID           string           `json:"id"`
	View         session.View     `json:"view"`
	Identity     *domain.Identity `json:"identity,omitempty"`
	Profile      *domain.Profile  `json:"profile,omitempty"`
	Loading      bool             `json:"loading"`
	SplashActive bool             `json:"splashActive"`
	CartCount    int              `json:"cartCount"`
	// Token lets the client restore the sign-in in a new session. It is only
	// sent right after signing in.
	Token string `json:"token,omitempty"`
}

func describeSession(s *session.Session) sessionResponse {
	st := s.Gate.State()
	return sessionResponse{
		ID:           s.ID,
		View:         st.View(),
		Identity:     st.Identity,
		Profile:      st.Profile,
		Loading:      st.Loading,
		SplashActive: st.SplashActive,
		CartCount:    s.Cart.Quantity(),
	}
}

func (a *api) withSession(c *gin.Context) {
	s, err := a.Sessions.Get(c.Param("sessionID"))
	if err != nil {
		a.failure(c, err, "Error", "Something went wrong. Please try again.")
		return
	}
	c.Set(sessionKey, s)
	c.Next()
}

func sessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// requireRole admits requests whose session has resolved to the given role
// tree. The splash window does not block API calls.
func (a *api) requireRole(role domain.Role) gin.HandlerFunc {
	want := session.ViewCustomer
	if role == domain.RoleRestaurant {
		want = session.ViewRestaurant
	}
	return func(c *gin.Context) {
		st := sessionFrom(c).Gate.State()
		st.SplashActive = false
		switch st.View() {
		case session.ViewAuth:
			abortWith(c, http.StatusUnauthorized, "Not Signed In", "Please sign in to continue.")
		case session.ViewLoading:
			abortWith(c, http.StatusConflict, "Loading", "Your account is still loading. Please try again.")
		case want:
			c.Next()
		default:
			abortWith(c, http.StatusForbidden, "Forbidden", "This screen is not available for your account.")
		}
	}
}

// uid is only valid behind requireRole.
func uid(c *gin.Context) string {
	id := sessionFrom(c).Gate.State().Identity
	if id == nil {
		return ""
	}
	return id.UID
}

type createSessionRequest struct {
	RestoreToken string `json:"restoreToken"`
}

func (a *api) createSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
	}
	s, err := a.Sessions.Create(c.Request.Context(), req.RestoreToken)
	if err != nil {
		a.authError(c, loginFlow, err)
		return
	}
	c.JSON(http.StatusCreated, describeSession(s))
}

func (a *api) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, describeSession(sessionFrom(c)))
}

func (a *api) closeSession(c *gin.Context) {
	if err := a.Sessions.Close(sessionFrom(c).ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		a.failure(c, err, "Error", "Something went wrong. Please try again.")
		return
	}
	c.Status(http.StatusNoContent)
}

// streamSession pushes the session state on every gate change until the
// client goes away or the session is closed.
func (a *api) streamSession(c *gin.Context) {
	s := sessionFrom(c)
	ctx := c.Request.Context()
	heartbeat := time.NewTicker(a.heartbeat)
	defer heartbeat.Stop()

	changed := s.Gate.Changed()
	c.SSEvent("session", describeSession(s))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-changed:
			changed = s.Gate.Changed()
			c.SSEvent("session", describeSession(s))
			return true
		case <-heartbeat.C:
			if _, err := a.Sessions.Get(s.ID); err != nil {
				return false
			}
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		}
	})
}

func (a *api) signUp(c *gin.Context) {
	var in auth.SignUpInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	s := sessionFrom(c)
	if _, err := a.Auth.SignUp(c.Request.Context(), s.Auth, in); err != nil {
		a.authError(c, signUpFlow, err)
		return
	}
	resp := describeSession(s)
	resp.Token = s.Auth.Token()
	c.JSON(http.StatusCreated, resp)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *api) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	s := sessionFrom(c)
	if _, err := a.Auth.SignIn(c.Request.Context(), s.Auth, req.Email, req.Password); err != nil {
		a.authError(c, loginFlow, err)
		return
	}
	resp := describeSession(s)
	resp.Token = s.Auth.Token()
	c.JSON(http.StatusOK, resp)
}

func (a *api) logout(c *gin.Context) {
	s := sessionFrom(c)
	if err := a.Auth.SignOut(c.Request.Context(), s.Auth); err != nil {
		a.logger.Error().Err(err).Str("session", s.ID).Msg("sign out")
		abortWith(c, http.StatusBadGateway, "Error", "Failed to sign out. Please try again.")
		return
	}
	c.JSON(http.StatusOK, describeSession(s))
}

func (a *api) changePassword(c *gin.Context) {
	var in auth.ChangePasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c)
		return
	}
	if err := a.Auth.ChangePassword(c.Request.Context(), sessionFrom(c).Auth, in); err != nil {
		a.authError(c, changePasswordFlow, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": "Success", "message": "Password updated successfully!"})
}

type resetRequest struct {
	Email string `json:"email"`
}

func (a *api) requestPasswordReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := a.Auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		a.authError(c, resetFlow, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"title":   "Reset Email Sent!",
		"message": "A password reset link has been sent to your email address. Please check your inbox (and spam folder) and follow the instructions to reset your password.",
	})
}

type confirmResetRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (a *api) confirmPasswordReset(c *gin.Context) {
	var req confirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := a.Auth.ConfirmPasswordReset(c.Request.Context(), req.Code, req.NewPassword); err != nil {
		a.authError(c, resetFlow, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": "Success", "message": "Password updated successfully!"})
}
