package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/itqan-erp/procurement-api/internal/auth"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *domain.User {
	return &domain.User{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Name:      "Fatima Al-Zahrani",
		Email:     "fatima@example.com",
		Role:      domain.RoleProcurementManager,
	}
}

func TestIssueAndValidate(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "procurement-api", time.Hour)
	user := testUser()

	signed, err := tokens.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	uc, err := tokens.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uc.UserID)
	assert.Equal(t, user.Name, uc.DisplayName)
	assert.Equal(t, user.Email, uc.Email)
	assert.Equal(t, domain.RoleProcurementManager, uc.Role)
}

func TestValidateToken_Expired(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "procurement-api", -time.Minute)

	signed, err := tokens.Issue(testUser())
	require.NoError(t, err)

	_, err = tokens.ValidateToken(signed)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := auth.NewTokenManager("secret-one", "procurement-api", time.Hour)
	verifier := auth.NewTokenManager("secret-two", "procurement-api", time.Hour)

	signed, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	issuer := auth.NewTokenManager("test-secret", "other-service", time.Hour)
	verifier := auth.NewTokenManager("test-secret", "procurement-api", time.Hour)

	signed, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "procurement-api", time.Hour)

	_, err := tokens.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateToken_UnknownRole(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":   uuid.NewString(),
		"name":  "Someone",
		"email": "someone@example.com",
		"role":  "WAREHOUSE_CAT",
		"iss":   "procurement-api",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret", "procurement-api", time.Hour)
	_, err = tokens.ValidateToken(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateToken_MissingSubject(t *testing.T) {
	claims := jwt.MapClaims{
		"role": string(domain.RoleAdmin),
		"iss":  "procurement-api",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret", "procurement-api", time.Hour)
	_, err = tokens.ValidateToken(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
