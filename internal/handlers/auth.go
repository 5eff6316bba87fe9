package handlers

import (
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/auth"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/middleware"
	"github.com/ukydev/fleet-manager/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Login handles user login. The identifier is a username or an email address.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if !decodeJSON(w, r, &loginReq) {
		return
	}

	loginReq.Identifier = strings.TrimSpace(loginReq.Identifier)
	if loginReq.Identifier == "" || loginReq.Password == "" {
		writeError(w, http.StatusBadRequest, "Identifier and password are required", "bad-request")
		return
	}

	var user *models.User
	var err error
	if strings.Contains(loginReq.Identifier, "@") {
		user, err = h.userCollection.FindUserByEmail(r.Context(), strings.ToLower(loginReq.Identifier))
	} else {
		user, err = h.userCollection.FindUserByUsername(r.Context(), loginReq.Identifier)
	}
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			writeInternal(w, r, err, "Failed to look up user")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "invalid-credentials")
		return
	}

	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, "Account is deactivated", "user-inactive")
		return
	}

	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "invalid-credentials")
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeInternal(w, r, err, "Failed to generate token")
		return
	}

	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		writeInternal(w, r, err, "Failed to generate refresh token")
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found", "unauthenticated")
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		if isNotFound(err) {
			writeBackendError(w, r, http.StatusNotFound, auth.CodeUserNotFound)
			return
		}
		writeInternal(w, r, err, "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's name and email.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found", "unauthenticated")
		return
	}

	var updateReq struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
	}
	if !decodeJSON(w, r, &updateReq) {
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		if isNotFound(err) {
			writeBackendError(w, r, http.StatusNotFound, auth.CodeUserNotFound)
			return
		}
		writeInternal(w, r, err, "Failed to load profile")
		return
	}

	if updateReq.FirstName != nil {
		user.FirstName = strings.TrimSpace(*updateReq.FirstName)
	}
	if updateReq.LastName != nil {
		user.LastName = strings.TrimSpace(*updateReq.LastName)
	}
	if updateReq.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*updateReq.Email))
		if err := h.authService.ValidateEmail(email); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "invalid-email")
			return
		}
		existing, err := h.userCollection.FindUserByEmail(r.Context(), email)
		exists, err := taken(existing, err, claims.UserID)
		if err != nil {
			writeInternal(w, r, err, "Failed to check email")
			return
		}
		if exists {
			writeBackendError(w, r, http.StatusConflict, auth.CodeEmailExists)
			return
		}
		user.Email = email
	}

	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			writeBackendError(w, r, http.StatusConflict, auth.CodeEmailExists)
			return
		}
		writeInternal(w, r, err, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found", "unauthenticated")
		return
	}

	var passwordReq struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &passwordReq) {
		return
	}

	if passwordReq.CurrentPassword == "" || passwordReq.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current password and new password are required", "bad-request")
		return
	}

	if err := h.authService.ValidatePassword(passwordReq.NewPassword); err != nil {
		writeBackendError(w, r, http.StatusBadRequest, auth.CodeWeakPassword)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		if isNotFound(err) {
			writeBackendError(w, r, http.StatusNotFound, auth.CodeUserNotFound)
			return
		}
		writeInternal(w, r, err, "Failed to load user")
		return
	}

	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Current password is incorrect", "invalid-credentials")
		return
	}

	newPasswordHash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		writeInternal(w, r, err, "Failed to hash password")
		return
	}

	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeInternal(w, r, err, "Failed to update password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
