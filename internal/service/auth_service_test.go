package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devscreen/internal/config"
	"devscreen/internal/model"
)

func testAuthService() *AuthService {
	return NewAuthService(config.AuthConfig{
		Username: "nurse",
		Password: "s3cret",
		Secret:   "test-secret",
		TokenTTL: time.Hour,
	})
}

func TestLogin_IssuesValidToken(t *testing.T) {
	svc := testAuthService()

	resp, err := svc.Login("nurse", "s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.ClinicianID, "clin_"))

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ClinicianID, claims.ClinicianID)
	assert.Equal(t, resp.ExpiresAt, claims.ExpiresAt.Unix())
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc := testAuthService()

	_, err := svc.Login("nurse", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := testAuthService()
	token, _, err := svc.IssueToken("clin_1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	other := NewAuthService(config.AuthConfig{Secret: "other", TokenTTL: time.Hour})
	token, _, err := other.IssueToken("clin_1")
	require.NoError(t, err)

	_, err = testAuthService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsNoneAlgAndMissingSubject(t *testing.T) {
	svc := testAuthService()

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &model.ClinicianClaims{ClinicianID: "clin_1"})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(noneToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	anon := jwt.NewWithClaims(jwt.SigningMethodHS256, &model.ClinicianClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	anonToken, err := anon.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(anonToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogin_ClinicianIDStableAcrossLogins(t *testing.T) {
	svc := testAuthService()

	first, err := svc.Login("nurse", "s3cret")
	require.NoError(t, err)
	second, err := svc.Login("nurse", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, first.ClinicianID, second.ClinicianID)

	// a restarted service issues the same id
	again, err := testAuthService().Login("nurse", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, first.ClinicianID, again.ClinicianID)
	assert.Equal(t, ClinicianIDFor(config.AuthConfig{Username: "nurse"}), first.ClinicianID)
}

func TestClinicianIDFor(t *testing.T) {
	assert.NotEqual(t,
		ClinicianIDFor(config.AuthConfig{Username: "nurse"}),
		ClinicianIDFor(config.AuthConfig{Username: "doctor"}))
	assert.Len(t, ClinicianIDFor(config.AuthConfig{Username: "nurse"}), len("clin_")+8)
	assert.Equal(t, "clin_fixed", ClinicianIDFor(config.AuthConfig{Username: "nurse", ClinicianID: "clin_fixed"}))

	svc := NewAuthService(config.AuthConfig{ClinicianID: "clin_fixed", Username: "u", Password: "p", Secret: "s", TokenTTL: time.Hour})
	resp, err := svc.Login("u", "p")
	require.NoError(t, err)
	assert.Equal(t, "clin_fixed", resp.ClinicianID)
}
