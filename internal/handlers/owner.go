package handlers

import (
	"context"
	"net/http"
	"strings"
)

// OwnerGuard enforces that the bearer token belongs to the watchlist owner.
// When disabled, the uid supplied by the caller is trusted as-is.
type OwnerGuard struct {
	Sessions SessionManager
	Enabled  bool
}

// Check writes a 401 or 403 response and returns false when the caller may
// not act on uid.
func (g OwnerGuard) Check(ctx context.Context, w http.ResponseWriter, r *http.Request, uid string) bool {
	if !g.Enabled {
		return true
	}
	if g.Sessions == nil {
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return false
	}

	token, ok := bearerToken(r)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "missing bearer token")
		return false
	}
	caller, err := g.Sessions.Authenticate(ctx, token)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid or expired token")
		return false
	}
	if caller != strings.TrimSpace(uid) {
		respondError(ctx, w, http.StatusForbidden, "not the owner of this watchlist")
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
