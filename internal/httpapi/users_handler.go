package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"footfall-data/internal/service"
)

// UsersHandler 管理后台的用户管理
type UsersHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

func NewUsersHandler(users *service.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, logger: logger}
}

// List GET /api/admin/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

// Update PUT /api/admin/users/{id}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request, sess *service.Session, rawID string) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req service.UserUpdateRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.users.Update(r.Context(), sess.UserID, id, req); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfModify):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidRole),
			errors.Is(err, service.ErrBadUsername),
			errors.Is(err, service.ErrBadPassword),
			errors.Is(err, service.ErrNameTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("update user failed", zap.Int("user_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Delete DELETE /api/admin/users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request, sess *service.Session, rawID string) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := h.users.Delete(r.Context(), sess.UserID, id); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDelete):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			h.logger.Error("delete user failed", zap.Int("user_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
