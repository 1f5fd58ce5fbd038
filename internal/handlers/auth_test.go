package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	registered := env.registerPatient(t, "Alice", "alice@example.com", "supersecret")
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "PATIENT", registered.User.Role)

	loggedIn := env.login(t, "alice@example.com", "supersecret")
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
	assert.Equal(t, "alice@example.com", loggedIn.User.Email)
	assert.Equal(t, "PATIENT", loggedIn.User.Role)
}

func TestRegisterDoctorRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	registered := env.registerDoctor(t, "Dr. Budi", "budi@example.com", "supersecret", "Umum")
	assert.Equal(t, "DOCTOR", registered.User.Role)
	assert.Equal(t, "Umum", registered.User.Specialization)

	loggedIn := env.login(t, "budi@example.com", "supersecret")
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
	assert.Equal(t, "DOCTOR", loggedIn.User.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerPatient(t, "Alice", "alice@example.com", "supersecret")

	rec := env.do(t, http.MethodPost, "/auth/login", gin.H{
		"email": "alice@example.com", "password": "not-the-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmailUniqueAcrossAccountKinds(t *testing.T) {
	env := newTestEnv(t)
	env.registerPatient(t, "Alice", "shared@example.com", "supersecret")

	// The same email cannot register as a doctor either.
	rec := env.do(t, http.MethodPost, "/auth/register-doctor", gin.H{
		"name": "Dr. Alice", "email": "shared@example.com", "password": "supersecret", "specialization": "Umum",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshRotationInvalidatesOldToken(t *testing.T) {
	env := newTestEnv(t)
	registered := env.registerPatient(t, "Alice", "alice@example.com", "supersecret")

	rec := env.do(t, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": registered.RefreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rotated struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	decodeData(t, rec, &rotated)
	require.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, registered.RefreshToken, rotated.RefreshToken)

	// The new access token works.
	rec = env.do(t, http.MethodGet, "/users/me", nil, rotated.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Reusing the rotated-out refresh token fails.
	rec = env.do(t, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": registered.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The current refresh token still rotates.
	rec = env.do(t, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": rotated.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	registered := env.registerPatient(t, "Alice", "alice@example.com", "supersecret")

	rec := env.do(t, http.MethodPost, "/auth/logout", nil, registered.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/refresh", gin.H{"refreshToken": registered.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout is idempotent.
	rec = env.do(t, http.MethodPost, "/auth/logout", nil, registered.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGateRejectsDeletedAccount(t *testing.T) {
	env := newTestEnv(t)
	registered := env.registerPatient(t, "Alice", "alice@example.com", "supersecret")

	rec := env.do(t, http.MethodDelete, "/users/me", nil, registered.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	// The unexpired access token no longer resolves to an account.
	rec = env.do(t, http.MethodGet, "/users/me", nil, registered.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthGateRejectsMissingOrMalformedToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/users/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
