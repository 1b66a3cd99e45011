package service

import (
	"context"
	"strings"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/model"
	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type OrganizationService struct {
	store *repository.Store
	log   *logrus.Logger
}

func NewOrganizationService(store *repository.Store, log *logrus.Logger) *OrganizationService {
	return &OrganizationService{store: store, log: log}
}

// Create registers a new organization owned by the calling super admin.
func (s *OrganizationService) Create(ctx context.Context, p auth.Principal, name string) (*model.Organization, error) {
	if err := policy.Authorize(p, policy.CreateOrganization, policy.Resource{}); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.BadRequest("Organization name is required")
	}

	var org *model.Organization
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		existing, err := tx.Organizations.FindByName(ctx, name)
		if err != nil {
			return storeError("Failed to check organization name", err)
		}
		if existing != nil {
			return apperror.Conflict("Organization already exists")
		}

		superAdminID := p.UserID
		org = &model.Organization{Name: name, SuperAdminID: &superAdminID}
		if err := tx.Organizations.Create(ctx, org); err != nil {
			if isDuplicate(err) {
				return apperror.Conflict("Organization already exists")
			}
			return storeError("Failed to create organization", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"organization_id": org.ID, "user_id": p.UserID}).Info("organization created")
	return org, nil
}

// AssignUser moves a user without an organization into orgID. The role
// follows the registration rule: the first user becomes the org admin.
func (s *OrganizationService) AssignUser(ctx context.Context, p auth.Principal, orgID, userID uuid.UUID) (*model.User, error) {
	var user *model.User
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		org, err := tx.Organizations.GetByIDForUpdate(ctx, orgID)
		if err != nil {
			return storeError("Failed to retrieve organization", err)
		}
		if org == nil {
			return apperror.NotFound("Organization not found")
		}
		if err := policy.Authorize(p, policy.AssignOrganizationUser, policy.Resource{OrganizationID: &org.ID}); err != nil {
			return err
		}

		user, err = tx.Users.GetByID(ctx, userID)
		if err != nil {
			return storeError("Failed to retrieve user", err)
		}
		if user == nil {
			return apperror.NotFound("User not found")
		}
		if user.OrganizationID != nil {
			if *user.OrganizationID == org.ID {
				return apperror.Conflict("User already belongs to this organization")
			}
			return apperror.BadRequest("User already belongs to another organization")
		}

		count, err := tx.Users.CountByOrganization(ctx, org.ID)
		if err != nil {
			return storeError("Failed to count organization users", err)
		}
		role := user.Role
		if role != model.UserRoleSuperAdmin {
			role = policy.RegistrationRole(count)
		}
		if err := tx.Users.AssignOrganization(ctx, user.ID, org.ID, role); err != nil {
			return storeError("Failed to assign user", err)
		}
		user.OrganizationID = &org.ID
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"organization_id": orgID, "member_id": userID}).Info("user assigned to organization")
	return user, nil
}
