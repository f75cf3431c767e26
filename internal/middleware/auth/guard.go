// Package auth holds the request-time authorization gate: the access guard,
// the refresh guard used only by the refresh endpoint, and declarative role
// requirements.
package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"postboard/internal/httperr"
	"postboard/internal/models"
	"postboard/internal/tokens"
)

const (
	identityKey      = "identity"
	refreshRawKey    = "refresh_raw"
	refreshClaimsKey = "refresh_claims"

	// RefreshHeader is the out-of-band channel for refresh tokens.
	RefreshHeader = "X-Refresh-Token"
)

// Identity is the caller resolved from a verified access token. Access
// tokens carry id, email and role, so no store lookup happens here.
type Identity struct {
	ID    uint
	Email string
	Role  string
}

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

type Guard struct {
	AccessSecret  []byte
	RefreshSecret []byte
}

// RequireAccess verifies the bearer token and attaches the caller identity.
// Every failure is rejected before any handler runs.
func (g *Guard) RequireAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := bearerToken(c)
		if err != nil {
			return err
		}

		claims, err := tokens.Parse(raw, g.AccessSecret)
		if err != nil {
			return err
		}

		id, err := claims.UserID()
		if err != nil {
			return err
		}

		c.Set(identityKey, Identity{ID: id, Email: claims.Email, Role: claims.Role})
		return next(c)
	}
}

// RequireRefresh verifies a token from the refresh header against the
// refresh secret and stashes the verified claims plus the raw token for the
// session manager, which still has to do the store comparison.
func (g *Guard) RequireRefresh(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(RefreshHeader)
		if raw == "" {
			return httperr.ErrMissingToken
		}

		claims, err := tokens.Parse(raw, g.RefreshSecret)
		if err != nil {
			return err
		}

		c.Set(refreshRawKey, raw)
		c.Set(refreshClaimsKey, claims)
		return next(c)
	}
}

// RequireRole runs after RequireAccess. A missing identity under a role
// requirement is a wiring bug, not a client failure.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError,
					"role requirement without access guard")
			}
			if ident.Role != role && !ident.IsAdmin() {
				return httperr.ErrForbidden
			}
			return next(c)
		}
	}
}

func IdentityFrom(c echo.Context) (Identity, bool) {
	ident, ok := c.Get(identityKey).(Identity)
	return ident, ok
}

func RefreshFrom(c echo.Context) (string, *tokens.Claims, bool) {
	raw, ok := c.Get(refreshRawKey).(string)
	if !ok {
		return "", nil, false
	}
	claims, ok := c.Get(refreshClaimsKey).(*tokens.Claims)
	if !ok {
		return "", nil, false
	}
	return raw, claims, true
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", httperr.ErrMissingToken
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", httperr.ErrTokenMalformed
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if raw == "" {
		return "", httperr.ErrMissingToken
	}
	return raw, nil
}
