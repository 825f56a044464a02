package authapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"mgltickets/cmd/directory"
)

var (
	// ErrInactiveAccount is returned when a valid credential maps to a
	// deactivated account.
	ErrInactiveAccount = errors.New("inactive account")

	// ErrRoleMismatch is returned when the caller's role is below the
	// route's minimum.
	ErrRoleMismatch = errors.New("role mismatch")
)

// requireUser authenticates the bearer access credential and resolves the
// caller's directory record. On failure it writes the generic 401 (or 403
// for an inactive account) and returns false.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (directory.User, bool) {
	tok := bearerToken(r)
	if tok == "" {
		writeCredentialError(w)
		return directory.User{}, false
	}

	claims, err := h.sessions.VerifyAccess(tok, time.Now().UTC())
	if err != nil {
		writeCredentialError(w)
		return directory.User{}, false
	}

	u, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if !directory.IsNotFound(err) {
			h.log.Error("auth.guard.lookup.fail", "err", err, "user_id", claims.UserID)
		}
		writeCredentialError(w)
		return directory.User{}, false
	}
	if !u.IsActive {
		h.log.Warn("auth.guard.inactive", "user_id", u.ID)
		writeError(w, http.StatusForbidden, "inactive_account", "account is deactivated")
		return directory.User{}, false
	}
	return u, true
}

// requireRole is requireUser plus a minimum-role check.
func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, min directory.Role) (directory.User, bool) {
	u, ok := h.requireUser(w, r)
	if !ok {
		return directory.User{}, false
	}
	if !u.Role.Meets(min) {
		h.log.Warn("auth.guard.role", "user_id", u.ID, "role", string(u.Role), "required", string(min))
		writeError(w, http.StatusForbidden, "role_mismatch", "insufficient role")
		return directory.User{}, false
	}
	return u, true
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
