package handlers

import (
	"net/http"
	"time"

	"github.com/monopay/monopay"
	"github.com/monopay/monopay/middleware"
	"github.com/monopay/monopay/store"
)

type signupRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type requestResetRequest struct {
	Email string `json:"email"`
}

type confirmResetRequest struct {
	Email       string  `json:"email"`
	OTP         string  `json:"otp"`
	ResetToken  string  `json:"resetToken"`
	NewPassword *string `json:"newPassword"`
}

type userResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func newUserResponse(u *store.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

type identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type signupResponse struct {
	Message  string       `json:"message"`
	User     userResponse `json:"user"`
	Token    string       `json:"token"`
	Redirect string       `json:"redirect"`
}

type sessionResponse struct {
	Token string   `json:"token"`
	User  identity `json:"user"`
}

type loginResponse struct {
	Message  string          `json:"message"`
	User     userResponse    `json:"user"`
	Token    string          `json:"token"`
	Session  sessionResponse `json:"session"`
	Redirect string          `json:"redirect"`
}

type resetTokenResponse struct {
	Success    bool   `json:"success"`
	ResetToken string `json:"resetToken"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type meResponse struct {
	User identity `json:"user"`
}

// Signup handles POST /api/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(w, r, &req); err != nil {
		h.record("signup", err)
		h.writeError(w, err)
		return
	}

	session, err := h.auth.Signup(r.Context(), monopay.SignupInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AcceptTerms:     req.AcceptTerms,
	})
	h.record("signup", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	http.SetCookie(w, h.auth.SessionCookie(session.Token))
	writeJSON(w, http.StatusCreated, signupResponse{
		Message:  "Account created successfully.",
		User:     newUserResponse(session.User),
		Token:    session.Token,
		Redirect: monopay.DashboardPath,
	})
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		h.record("login", err)
		h.writeError(w, err)
		return
	}

	session, err := h.auth.Login(r.Context(), monopay.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	h.record("login", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	http.SetCookie(w, h.auth.SessionCookie(session.Token))
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful.",
		User:    newUserResponse(session.User),
		Token:   session.Token,
		Session: sessionResponse{
			Token: session.Token,
			User:  identity{ID: session.User.ID, Email: session.User.Email},
		},
		Redirect: monopay.DashboardPath,
	})
}

// RequestReset handles POST /api/auth/request-reset.
func (h *Handler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if err := decode(w, r, &req); err != nil {
		h.record("request_reset", err)
		h.writeError(w, err)
		return
	}

	resetToken, err := h.auth.RequestPasswordReset(r.Context(), req.Email)
	h.record("request_reset", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resetTokenResponse{Success: true, ResetToken: resetToken})
}

// ConfirmReset handles POST /api/auth/confirm-reset. Without newPassword
// it only verifies the code.
func (h *Handler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req confirmResetRequest
	if err := decode(w, r, &req); err != nil {
		h.record("confirm_reset", err)
		h.writeError(w, err)
		return
	}

	outcome, err := h.auth.ConfirmPasswordReset(r.Context(), monopay.ConfirmResetInput{
		Email:       req.Email,
		OTP:         req.OTP,
		ResetToken:  req.ResetToken,
		NewPassword: req.NewPassword,
	})
	h.record("confirm_reset", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	msg := "OTP verified successfully"
	if outcome == monopay.ResetCompleted {
		msg = "Password updated successfully"
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: msg})
}

// Me handles GET /api/me. The user id comes from the header the gate
// injects, falling back to the claims in the request context. The account
// is reloaded so a deleted user no longer resolves.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(middleware.HeaderUserID)
	if userID == "" {
		if claims, ok := middleware.GetClaims(r.Context()); ok {
			userID = claims.UserID
		}
	}
	user, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: identity{ID: user.ID, Email: user.Email}})
}

// Logout handles POST /api/logout. Session tokens are stateless, so this
// only clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.auth.ClearSessionCookie())
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
