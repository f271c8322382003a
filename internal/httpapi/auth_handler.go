package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"footfall-data/internal/service"
)

// SessionCookie 会话令牌的 Cookie 名，有效期由 KV 里的 TTL 控制
const SessionCookie = "session_token"

// AuthHandler 登录、注册与会话
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	sess, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownUser), errors.Is(err, service.ErrWrongPassword):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			h.logger.Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	setSessionCookie(w, token, 0)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Login successful",
		"last_login": sess.LastLogin,
	})
}

// AdminLogin POST /api/admin-login
// 管理后台登录的载荷约定与普通登录不同：{"success": ..., "message"/"role": ...}
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Username and password are required."})
		return
	}

	sess, token, err := h.auth.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": err.Error()})
		case errors.Is(err, service.ErrAccessDenied):
			writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": err.Error()})
		default:
			h.logger.Error("admin login failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "An error occurred."})
		}
		return
	}

	setSessionCookie(w, token, 0)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "role": sess.Role})
}

type registerRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	AdminPassword string `json:"adminPassword"`
}

// Register POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.AdminPassword == "" {
		writeError(w, http.StatusBadRequest, "All fields are required.")
		return
	}

	if err := h.auth.Register(r.Context(), req.Username, req.Password, req.AdminPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAdminPass):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrUserExists):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrBadUsername), errors.Is(err, service.ErrBadPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("register failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully."})
}

// Logout GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}
	setSessionCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// CheckSession GET /api/check-session
func (h *AuthHandler) CheckSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.auth.CheckSession(r.Context(), sessionToken(r))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}
	lastLogin := sess.LastLogin
	if lastLogin == "" {
		lastLogin = "Never"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"username":      sess.Username,
		"role":          sess.Role,
		"last_login":    lastLogin,
	})
}

// UpdateLastLogin POST /api/update-last-login
func (h *AuthHandler) UpdateLastLogin(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	if err := h.auth.UpdateLastLogin(r.Context(), sess); err != nil {
		h.logger.Error("update last login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
