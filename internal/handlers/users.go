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
	"github.com/ukydev/fleet-manager/internal/policy"
)

// UserHandler is the admin user-management API.
type UserHandler struct {
	authService *auth.Service
	users       db.UserCollection
	gate        *policy.Gate
}

func NewUserHandler(authService *auth.Service, users db.UserCollection, gate *policy.Gate) *UserHandler {
	return &UserHandler{authService: authService, users: users, gate: gate}
}

func (h *UserHandler) authorize(w http.ResponseWriter, r *http.Request, action policy.Action, target any) bool {
	claims, _ := middleware.GetUserFromContext(r.Context())
	if err := h.gate.Authorize(r.Context(), claims, action, policy.ResourceUsers, target); err != nil {
		middleware.WritePolicyError(w, err)
		return false
	}
	return true
}

// List returns every account ordered by username.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, policy.ActionList, nil) {
		return
	}
	users, err := h.users.FindUsers(r.Context(), nil)
	if err != nil {
		writeInternal(w, r, err, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get returns one account.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.authorize(w, r, policy.ActionView, policy.UserTarget{ID: id}) {
		return
	}
	user, err := h.users.FindUserByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Create adds an account.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, policy.ActionCreate, nil) {
		return
	}
	var req models.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = models.RoleViewer
	}

	if err := h.authService.ValidateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid-username")
		return
	}
	if err := h.authService.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid-email")
		return
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		writeBackendError(w, r, http.StatusBadRequest, auth.CodeWeakPassword)
		return
	}
	if !models.IsValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "Invalid role", "invalid-role")
		return
	}

	byEmail, err := h.users.FindUserByEmail(r.Context(), req.Email)
	exists, err := taken(byEmail, err, "")
	if err != nil {
		writeInternal(w, r, err, "Failed to check email")
		return
	}
	if exists {
		writeBackendError(w, r, http.StatusConflict, auth.CodeEmailExists)
		return
	}
	byName, err := h.users.FindUserByUsername(r.Context(), req.Username)
	exists, err = taken(byName, err, "")
	if err != nil {
		writeInternal(w, r, err, "Failed to check username")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "Username already exists", "username-already-exists")
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeInternal(w, r, err, "Failed to hash password")
		return
	}
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
	}
	id, err := h.users.InsertUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			writeBackendError(w, r, http.StatusConflict, auth.CodeEmailExists)
			return
		}
		writeInternal(w, r, err, "Failed to create user")
		return
	}

	created, err := h.users.FindUserByID(r.Context(), id)
	if err != nil {
		writeInternal(w, r, err, "Failed to load created user")
		return
	}
	log.WithFields(log.Fields{"user_id": id, "role": created.Role}).Info("User created")
	writeJSON(w, http.StatusCreated, created)
}

// Update changes the fields present in the body.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.authorize(w, r, policy.ActionUpdate, policy.UserTarget{ID: id}) {
		return
	}
	var req models.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.FindUserByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := h.authService.ValidateEmail(email); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "invalid-email")
			return
		}
		existing, err := h.users.FindUserByEmail(r.Context(), email)
		exists, err := taken(existing, err, id)
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
	if req.Password != nil {
		if err := h.authService.ValidatePassword(*req.Password); err != nil {
			writeBackendError(w, r, http.StatusBadRequest, auth.CodeWeakPassword)
			return
		}
		hash, err := h.authService.HashPassword(*req.Password)
		if err != nil {
			writeInternal(w, r, err, "Failed to hash password")
			return
		}
		user.PasswordHash = hash
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Role != nil {
		if !models.IsValidRole(*req.Role) {
			writeError(w, http.StatusBadRequest, "Invalid role", "invalid-role")
			return
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.users.UpdateUser(r.Context(), id, *user); err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicate):
			writeBackendError(w, r, http.StatusConflict, auth.CodeEmailExists)
		case isNotFound(err):
			writeBackendError(w, r, http.StatusNotFound, auth.CodeUserNotFound)
		default:
			writeInternal(w, r, err, "Failed to update user")
		}
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete removes an account. Deleting the caller's own account is refused.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.authorize(w, r, policy.ActionDelete, policy.UserTarget{ID: id}) {
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	log.WithField("user_id", id).Info("User deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if isNotFound(err) {
		writeBackendError(w, r, http.StatusNotFound, auth.CodeUserNotFound)
		return
	}
	writeInternal(w, r, err, "User lookup failed")
}
