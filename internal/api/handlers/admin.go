package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/sujal/maths-tabel-server/internal/api/middleware"
	"github.com/sujal/maths-tabel-server/internal/domain"
	"github.com/sujal/maths-tabel-server/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

type pendingUserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *AdminHandler) Pending(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListPending(r.Context())
	if err != nil {
		respondInternalError(w, err)
		return
	}

	rows := make([]pendingUserResponse, 0, len(users))
	for _, user := range users {
		rows = append(rows, pendingUserResponse{
			ID:        user.ID.String(),
			Username:  user.Username,
			CreatedAt: user.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"users": rows})
}

func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.adminService.Overview(r.Context())
	if err != nil {
		respondInternalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

type ApproveRequest struct {
	UserID   string `json:"userId"`
	Approved *bool  `json:"approved"`
}

func (r ApproveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, is.UUID.Error("Invalid user ID.")),
		validation.Field(&r.Approved, validation.NotNil.Error("approved must be true or false.")),
	)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	if err := h.adminService.Decide(r.Context(), userID, *req.Approved); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, service.ErrCannotRejectAdmin):
			respondError(w, http.StatusBadRequest, "Admin user cannot be rejected.")
		default:
			respondInternalError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(
			&r.NewPassword,
			validation.Required,
			validation.Length(6, 72).Error("New password must be 6-72 characters."),
		),
	)
}

func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err := h.adminService.ChangeOwnPassword(r.Context(), user.ID, sessionID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			respondError(w, http.StatusUnauthorized, "Current password is incorrect.")
		case errors.Is(err, domain.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "Admin user not found.")
		default:
			respondInternalError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated."})
}
