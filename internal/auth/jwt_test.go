package auth_test

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, 24)

	// Генерируем токен
	userID := uuid.New()
	orgID := uuid.New()
	token, err := tokens.GenerateToken(userID, &orgID, model.UserRoleAdmin)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// Парсим токен
	parsedUserID, err := tokens.ParseToken(token)

	assert.NoError(t, err)
	assert.Equal(t, userID, parsedUserID)
}

func TestParseToken_InvalidToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, 24)

	_, err := tokens.ParseToken("invalid-token")

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := auth.NewTokenManager("other-secret", 1).GenerateToken(uuid.New(), nil, model.UserRoleMember)
	require.NoError(t, err)

	_, err = auth.NewTokenManager(testSecret, 1).ParseToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_ExpiredToken(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, 24)

	// Создаем токен с истекшим сроком действия
	claims := jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(-1 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredToken, _ := token.SignedString([]byte(testSecret))

	_, err := tokens.ParseToken(expiredToken)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_MissingClaims(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, 24)

	// Токен без ID пользователя
	claims := jwt.MapClaims{
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenWithoutUserID, _ := token.SignedString([]byte(testSecret))

	_, err := tokens.ParseToken(tokenWithoutUserID)

	assert.ErrorIs(t, err, auth.ErrInvalidClaims)
}

func TestParseToken_NonUUIDUser(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, 24)

	claims := jwt.MapClaims{
		"user_id": "not-a-valid-uuid",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))

	_, err := tokens.ParseToken(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidClaims)
}

type stubUsers map[uuid.UUID]*model.User

func (s stubUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return s[id], nil
}

func TestIdentityProvider_Resolve(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, 1)
	orgID := uuid.New()
	user := &model.User{ID: uuid.New(), Role: model.UserRoleAdmin, OrganizationID: &orgID}
	idp := auth.NewIdentityProvider(tokens, stubUsers{user.ID: user})

	// Роль в токене устарела, берётся актуальная из хранилища
	token, err := tokens.GenerateToken(user.ID, nil, model.UserRoleMember)
	require.NoError(t, err)

	p, err := idp.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, model.UserRoleAdmin, p.Role)
	assert.True(t, p.InOrganization(orgID))
	assert.True(t, p.IsOrgAdmin())
	assert.False(t, p.IsSuperAdmin())
}

func TestIdentityProvider_UnknownUser(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, 1)
	idp := auth.NewIdentityProvider(tokens, stubUsers{})

	token, err := tokens.GenerateToken(uuid.New(), nil, model.UserRoleMember)
	require.NoError(t, err)

	_, err = idp.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = idp.Resolve(context.Background(), "garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
