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
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	OrganizationID *uuid.UUID
}

// AuthResult is a signed access token with the user it belongs to.
type AuthResult struct {
	Token string
	User  *model.User
}

type UserService struct {
	store  *repository.Store
	tokens *auth.TokenManager
	log    *logrus.Logger
	cost   int
}

func NewUserService(store *repository.Store, tokens *auth.TokenManager, log *logrus.Logger) *UserService {
	return &UserService{store: store, tokens: tokens, log: log, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

// Register creates a user. Joining an organization with no users yet makes
// the registrant its admin.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	user, err := s.createUser(ctx, in, "")
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateSuperAdmin bootstraps a super admin outside of any organization.
func (s *UserService) CreateSuperAdmin(ctx context.Context, username, email, password string) (*model.User, error) {
	return s.createUser(ctx, RegisterInput{Username: username, Email: email, Password: password}, model.UserRoleSuperAdmin)
}

func (s *UserService) createUser(ctx context.Context, in RegisterInput, role string) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, apperror.BadRequest("Username, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperror.Internal("Failed to hash password", err)
	}

	user := &model.User{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: string(hash),
		Role:           role,
	}

	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		existing, err := tx.Users.FindByEmail(ctx, in.Email)
		if err != nil {
			return storeError("Failed to check email", err)
		}
		if existing != nil {
			return apperror.Conflict("User with this email already exists")
		}
		existing, err = tx.Users.FindByUsername(ctx, in.Username)
		if err != nil {
			return storeError("Failed to check username", err)
		}
		if existing != nil {
			return apperror.Conflict("Username is already taken")
		}

		if in.OrganizationID != nil {
			// блокируем организацию: подсчет и вставка идут по очереди
			org, err := tx.Organizations.GetByIDForUpdate(ctx, *in.OrganizationID)
			if err != nil {
				return storeError("Failed to retrieve organization", err)
			}
			if org == nil {
				return apperror.NotFound("Organization not found")
			}
			count, err := tx.Users.CountByOrganization(ctx, org.ID)
			if err != nil {
				return storeError("Failed to count organization users", err)
			}
			user.OrganizationID = &org.ID
			if user.Role == "" {
				user.Role = policy.RegistrationRole(count)
			}
		}

		if err := tx.Users.Create(ctx, user); err != nil {
			if isDuplicate(err) {
				return apperror.Conflict("User already exists")
			}
			return storeError("Failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return user, nil
}

// Login checks the password of the user with email.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, storeError("Failed to retrieve user", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}
	return s.issue(user)
}

func (s *UserService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.OrganizationID, user.Role)
	if err != nil {
		return nil, apperror.Internal("Failed to generate token", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
