package auth

import (
	"context"
	"errors"

	"taskflow/internal/apperror"
	"taskflow/internal/model"

	"github.com/google/uuid"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID         uuid.UUID
	OrganizationID *uuid.UUID
	Role           string
}

func (p Principal) InOrganization(orgID uuid.UUID) bool {
	return p.OrganizationID != nil && *p.OrganizationID == orgID
}

func (p Principal) IsSuperAdmin() bool { return p.Role == model.UserRoleSuperAdmin }

// IsOrgAdmin is true for admins and super admins.
func (p Principal) IsOrgAdmin() bool {
	return p.Role == model.UserRoleAdmin || p.Role == model.UserRoleSuperAdmin
}

// UserLookup is the slice of the user store the identity provider needs.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// IdentityProvider resolves bearer tokens to principals.
type IdentityProvider struct {
	tokens *TokenManager
	users  UserLookup
}

func NewIdentityProvider(tokens *TokenManager, users UserLookup) *IdentityProvider {
	return &IdentityProvider{tokens: tokens, users: users}
}

// Resolve verifies the token and loads the current role and organization of
// its user. Any failure is Unauthorized.
func (p *IdentityProvider) Resolve(ctx context.Context, token string) (Principal, error) {
	userID, err := p.tokens.ParseToken(token)
	if errors.Is(err, ErrInvalidClaims) {
		return Principal{}, apperror.Unauthorized("Invalid user ID in token")
	}
	if err != nil {
		return Principal{}, apperror.Unauthorized("Invalid or expired token")
	}

	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return Principal{}, apperror.Internal("Failed to load user", err)
	}
	if user == nil {
		return Principal{}, apperror.Unauthorized("User not found")
	}

	return Principal{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
	}, nil
}
