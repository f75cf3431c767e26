package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/internal/httperr"
)

var (
	accessSecret  = []byte("test-access-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func TestSignAccessRoundTrip(t *testing.T) {
	t.Parallel()

	raw, err := SignAccess(42, "alice@example.com", "admin", accessSecret, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := Parse(raw, accessSecret)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestSignRefreshCarriesJTI(t *testing.T) {
	t.Parallel()

	raw1, err := SignRefresh(1, "a@b.c", "user", refreshSecret, time.Hour)
	require.NoError(t, err)
	raw2, err := SignRefresh(1, "a@b.c", "user", refreshSecret, time.Hour)
	require.NoError(t, err)

	c1, err := Parse(raw1, refreshSecret)
	require.NoError(t, err)
	c2, err := Parse(raw2, refreshSecret)
	require.NoError(t, err)

	assert.NotEmpty(t, c1.ID)
	assert.NotEmpty(t, c2.ID)
	// Per-issuance JTI guarantees a new signature on every rotation.
	assert.NotEqual(t, c1.ID, c2.ID)

	s1, err := SignatureSegment(raw1)
	require.NoError(t, err)
	s2, err := SignatureSegment(raw2)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestParseExpired(t *testing.T) {
	t.Parallel()

	raw, err := SignAccess(1, "a@b.c", "user", accessSecret, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(raw, accessSecret)
	require.ErrorIs(t, err, httperr.ErrTokenExpired)
}

func TestParseWrongSecret(t *testing.T) {
	t.Parallel()

	raw, err := SignAccess(1, "a@b.c", "user", accessSecret, time.Minute)
	require.NoError(t, err)

	_, err = Parse(raw, refreshSecret)
	require.ErrorIs(t, err, httperr.ErrBadSignature)
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	_, err := Parse("definitely not a token", accessSecret)
	require.ErrorIs(t, err, httperr.ErrTokenMalformed)
}

func TestSignatureSegment(t *testing.T) {
	t.Parallel()

	raw, err := SignAccess(7, "a@b.c", "user", accessSecret, time.Minute)
	require.NoError(t, err)

	sig, err := SignatureSegment(raw)
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	assert.Equal(t, parts[2], sig)

	_, err = SignatureSegment("only.two")
	require.ErrorIs(t, err, httperr.ErrTokenMalformed)
}
