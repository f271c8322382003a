package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"footfall-data/internal/domain"
	"footfall-data/internal/service"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAuthRoutes 登录、注册与会话路由
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/api/login", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, req)
	})

	r.Handle("/api/admin-login", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.AdminLogin(w, req)
	})

	r.Handle("/api/register", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Register(w, req)
	})

	r.Handle("/logout", h.Logout)
	r.Handle("/api/check-session", h.CheckSession)

	r.Handle("/api/update-last-login", h.requireSession(func(w http.ResponseWriter, req *http.Request, sess *service.Session) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.UpdateLastLogin(w, req, sess)
	}))
}

// RegisterDashboardRoutes 仪表盘数据路由，全部要求登录态
func (r *Router) RegisterDashboardRoutes(auth *AuthHandler, h *DashboardHandler) {
	r.Handle("/api/dashboard", auth.requireSession(func(w http.ResponseWriter, req *http.Request, _ *service.Session) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Dashboard(w, req)
	}))

	r.Handle("/api/footfall-distribution", auth.requireSession(func(w http.ResponseWriter, req *http.Request, _ *service.Session) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Distribution(w, req)
	}))

	r.Handle("/api/alltime", auth.requireSession(func(w http.ResponseWriter, req *http.Request, _ *service.Session) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.AllTimeSlots(w, req)
	}))
}

// RegisterAdminRoutes 用户管理路由，要求管理员登录态
func (r *Router) RegisterAdminRoutes(auth *AuthHandler, h *UsersHandler) {
	r.Handle("/api/admin/users", auth.requireAdmin(func(w http.ResponseWriter, req *http.Request, _ *service.Session) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.List(w, req)
	}))

	r.Handle("/api/admin/users/", auth.requireAdmin(func(w http.ResponseWriter, req *http.Request, sess *service.Session) {
		id := strings.TrimPrefix(req.URL.Path, "/api/admin/users/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodPut:
			h.Update(w, req, sess, id)
		case http.MethodDelete:
			h.Delete(w, req, sess, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *service.Session)

// requireSession 会话校验中间件
func (h *AuthHandler) requireSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.auth.CheckSession(r.Context(), sessionToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next(w, r, sess)
	}
}

// requireAdmin 会话校验加角色校验
func (h *AuthHandler) requireAdmin(next sessionHandler) http.HandlerFunc {
	return h.requireSession(func(w http.ResponseWriter, r *http.Request, sess *service.Session) {
		if sess.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next(w, r, sess)
	})
}
