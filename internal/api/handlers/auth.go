package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sujal/maths-tabel-server/internal/api/middleware"
	"github.com/sujal/maths-tabel-server/internal/config"
	"github.com/sujal/maths-tabel-server/internal/domain"
	"github.com/sujal/maths-tabel-server/internal/service"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type AuthHandler struct {
	authService *service.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(3, 20).Error("Username must be 3-20 characters."),
			validation.Match(usernamePattern).Error("Username can only use letters, numbers, and _."),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 72).Error("Password must be 6-72 characters."),
		),
	)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(3, 20).Error("Username must be 3-20 characters."),
			validation.Match(usernamePattern).Error("Username can only use letters, numbers, and _."),
		),
		validation.Field(&r.Password, validation.Required),
	)
}

type userResponse struct {
	User domain.SafeUser `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	err := h.authService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			respondError(w, http.StatusConflict, "Username already exists.")
			return
		}
		respondInternalError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Registered. Awaiting admin approval.",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
		Remember: req.Remember,
	}, domain.SessionMeta{
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "Invalid username or password.")
		case errors.Is(err, service.ErrPendingApproval):
			respondJSON(w, http.StatusForbidden, map[string]string{
				"error": "Awaiting admin approval.",
				"code":  "PENDING",
			})
		default:
			respondInternalError(w, err)
		}
		return
	}

	http.SetCookie(w, authCookie(h.cfg, result.Token, result.TTL))
	respondJSON(w, http.StatusOK, userResponse{User: result.User.Safe()})
}

// Logout is idempotent: no cookie, an expired token and a live token
// all succeed. The cookie is cleared regardless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cfg.CookieName); err == nil {
		h.authService.Logout(r.Context(), cookie.Value)
	}

	http.SetCookie(w, clearAuthCookie(h.cfg))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, userResponse{User: user.Safe()})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
