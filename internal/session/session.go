// Package session orchestrates login, token issuance and refresh-token
// rotation over the hasher, the signer and the refresh token store.
package session

import (
	"context"
	"errors"
	"time"

	"postboard/internal/hash"
	"postboard/internal/httperr"
	"postboard/internal/logging"
	"postboard/internal/models"
	"postboard/internal/repo"
	"postboard/internal/tokens"
)

type Manager struct {
	Users  *repo.UserRepo
	Tokens *repo.TokenRepo

	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login verifies credentials and issues a fresh token pair, returning the
// authenticated user alongside it. Unknown email and wrong password are
// indistinguishable to the caller.
func (m *Manager) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	l := logging.FromContext(ctx).With("svc", "session.login")

	user, err := m.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			l.Warn("login_failed", "reason", "invalid credentials")
			return nil, nil, httperr.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "invalid credentials")
		return nil, nil, httperr.ErrInvalidCredentials
	}

	pair, sigHash, err := m.issuePair(user)
	if err != nil {
		return nil, nil, err
	}

	exp := time.Now().Add(m.RefreshTTL)
	if _, err := m.Tokens.Upsert(ctx, user.ID, models.TokenClassRefresh, sigHash, &exp); err != nil {
		return nil, nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return pair, user, nil
}

// Refresh rotates a presented refresh token. The refresh guard has already
// checked signature and expiry; what remains is the store comparison that
// kills rotated-out tokens. Of two concurrent calls with the same token only
// one can win the conditional rotate, the other gets ErrStaleRefreshToken.
func (m *Manager) Refresh(ctx context.Context, rawRefresh string, claims *tokens.Claims) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	record, err := m.Tokens.Get(ctx, userID, models.TokenClassRefresh)
	if err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			l.Warn("refresh_failed", "reason", "no stored record", "user_id", userID)
			return nil, httperr.ErrStaleRefreshToken
		}
		return nil, err
	}

	sig, err := tokens.SignatureSegment(rawRefresh)
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(record.SignatureHash, sig) {
		l.Warn("refresh_failed", "reason", "stale token", "user_id", userID)
		return nil, httperr.ErrStaleRefreshToken
	}

	user, err := m.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, httperr.ErrNotFound) {
			return nil, httperr.ErrStaleRefreshToken
		}
		return nil, err
	}

	pair, sigHash, err := m.issuePair(user)
	if err != nil {
		return nil, err
	}

	exp := time.Now().Add(m.RefreshTTL)
	if err := m.Tokens.Rotate(ctx, userID, models.TokenClassRefresh, record.SignatureHash, sigHash, &exp); err != nil {
		return nil, err
	}

	l.Info("refresh_success", "user_id", userID)
	return pair, nil
}

// Logout deletes the stored refresh record; any outstanding refresh token
// becomes permanently unusable.
func (m *Manager) Logout(ctx context.Context, userID uint) error {
	return m.Tokens.Delete(ctx, userID, models.TokenClassRefresh)
}

// issuePair signs an access and a refresh token for the user and returns,
// alongside the pair, the bcrypt hash of the refresh token's signature
// segment. Only that short unforgeable tail is hashed and stored.
func (m *Manager) issuePair(user *models.User) (*TokenPair, string, error) {
	access, err := tokens.SignAccess(user.ID, user.Email, user.Role, m.AccessSecret, m.AccessTTL)
	if err != nil {
		return nil, "", err
	}

	refresh, err := tokens.SignRefresh(user.ID, user.Email, user.Role, m.RefreshSecret, m.RefreshTTL)
	if err != nil {
		return nil, "", err
	}

	sig, err := tokens.SignatureSegment(refresh)
	if err != nil {
		return nil, "", err
	}
	sigHash, err := hash.HashPassword(sig)
	if err != nil {
		return nil, "", err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, sigHash, nil
}
