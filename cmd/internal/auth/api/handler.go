package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mgltickets/cmd/directory"
	"mgltickets/cmd/internal/auth/session"
)

// Handler wires HTTP auth endpoints to the directory and session services.
type Handler struct {
	log *slog.Logger
	cfg Config

	users    directory.Directory
	sessions *session.Service
	sweeper  *session.Sweeper
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, users directory.Directory, sessions *session.Service, sweeper *session.Sweeper) (*Handler, error) {
	if users == nil || sessions == nil {
		return nil, errors.New("auth: nil directory or session service")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:      log,
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		sweeper:  sweeper,
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/logout-all-devices", h.handleLogoutAll)
	mux.HandleFunc("/auth/session-stats", h.handleSessionStats)
	mux.HandleFunc("/admin/auth/cleanup-sessions", h.handleCleanupSessions)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name, email, and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	u, err := h.users.Create(ctx, directory.CreateUserInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: req.Password,
		Now:      now,
	})
	if err != nil {
		switch {
		case directory.IsConflict(err):
			writeError(w, http.StatusConflict, "conflict", "email already registered")
		case directory.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid input")
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	issued, err := h.sessions.Login(ctx, u.ID, now)
	if err != nil {
		h.log.Error("auth.register.issue.fail", "err", err, "user_id", u.ID)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExpiresAt)
	writeJSON(w, http.StatusCreated, registerResponse{
		User:          toUserResponse(u),
		tokenResponse: h.toTokenResponse(issued, now),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if directory.IsBadPassword(err) || directory.IsNotFound(err) {
			writeCredentialError(w)
			return
		}
		h.log.Error("auth.login.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	if !u.IsActive {
		h.log.Warn("auth.login.inactive", "user_id", u.ID)
		writeError(w, http.StatusForbidden, "inactive_account", "account is deactivated")
		return
	}

	issued, err := h.sessions.Login(ctx, u.ID, now)
	if err != nil {
		h.log.Error("auth.login.issue.fail", "err", err, "user_id", u.ID)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, h.toTokenResponse(issued, now))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	refreshToken, _ := h.refreshTokenFromCookie(r)
	if refreshToken == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
		refreshToken = strings.TrimSpace(req.RefreshToken)
	}
	if refreshToken == "" {
		writeCredentialError(w)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	issued, err := h.sessions.Refresh(ctx, refreshToken, now)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidToken),
			errors.Is(err, session.ErrSessionExpired),
			errors.Is(err, session.ErrSessionRevoked),
			errors.Is(err, session.ErrUnauthorized):
			// The service already logged the interesting cases.
			writeCredentialError(w)
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	// A grace-window replay issues no refresh credential; the caller keeps
	// the cookie it already has.
	if issued.RefreshToken != "" {
		h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExpiresAt)
	}
	writeJSON(w, http.StatusOK, h.toTokenResponse(issued, now))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	refreshToken, _ := h.refreshTokenFromCookie(r)
	if refreshToken == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err == nil {
			refreshToken = strings.TrimSpace(req.RefreshToken)
		}
	}

	// Logout is idempotent: an absent or already-dead credential still ends
	// in 204 with the cookie cleared.
	if refreshToken != "" {
		if err := h.sessions.Logout(r.Context(), refreshToken, time.Now().UTC()); err != nil &&
			!errors.Is(err, session.ErrInvalidToken) {
			h.log.Error("auth.logout.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	n, err := h.sessions.LogoutAll(r.Context(), u.ID)
	if err != nil {
		h.log.Error("auth.logout_all.fail", "err", err, "user_id", u.ID)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, logoutAllResponse{SessionsEnded: n})
}

func (h *Handler) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, ok := h.requireRole(w, r, directory.RoleAdmin)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	global, err := h.sessions.StatsGlobal(ctx, now)
	if err != nil {
		h.log.Error("auth.stats.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	own, err := h.sessions.StatsForUser(ctx, u.ID, now)
	if err != nil {
		h.log.Error("auth.stats.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		ActiveSessions: global.ActiveSessions,
		ActiveForUser:  own.ActiveSessions,
	})
}

func (h *Handler) handleCleanupSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if _, ok := h.requireRole(w, r, directory.RoleAdmin); !ok {
		return
	}
	if h.sweeper == nil {
		writeError(w, http.StatusServiceUnavailable, "sweeper_unavailable", "cleanup not configured")
		return
	}

	retention := time.Duration(0)
	if raw := strings.TrimSpace(r.URL.Query().Get("hours")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "hours must be a positive integer")
			return
		}
		retention = time.Duration(hours) * time.Hour
	}

	ctx := r.Context()
	now := time.Now().UTC()

	var (
		res session.SweepResult
		err error
	)
	if retention > 0 {
		res, err = h.sweeper.RunWithRetention(ctx, now, retention)
	} else {
		res, err = h.sweeper.Run(ctx, now)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "cleanup failed")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ---- helpers ----

func toUserResponse(u directory.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) toTokenResponse(issued session.Issued, now time.Time) tokenResponse {
	return tokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(issued.AccessExpiresAt.Sub(now).Seconds()),
	}
}
