package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/mygardenbook/gardenbook/internal/server/auth"
	"github.com/mygardenbook/gardenbook/internal/server/config"
	"github.com/mygardenbook/gardenbook/internal/server/models"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/repomanager"
)

type registerInput struct {
	Email string `validate:"required,email,max=254"`
	Role  string `validate:"oneof=admin viewer"`
}

// LoginResult is a signed access token plus the account it belongs to.
type LoginResult struct {
	Token string
	Admin *models.Admin
}

type AdminService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	logger                      logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *AdminService {
	return &AdminService{
		db:                          db,
		repomanager:                 m,
		logger:                      l.With("module", "admin_service"),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func (s *AdminService) Register(ctx context.Context, email, password, role string) (*models.Admin, error) {
	in := registerInput{Email: strings.ToLower(strings.TrimSpace(email)), Role: role}
	if in.Role == "" {
		in.Role = models.RoleAdmin
	}
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin, err := s.repomanager.Admins(s.db).Create(ctx, &models.Admin{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, common.Dependency("create admin", err)
	}

	s.logger.Info(ctx, "admin registered", "id", admin.ID, "role", admin.Role)
	return admin, nil
}

// Login checks the password and issues an access token. An unknown email
// and a wrong password are indistinguishable to the caller.
func (s *AdminService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.Validationf("email and password are required")
	}

	admin, err := s.repomanager.Admins(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredential
		}
		return nil, common.Dependency("find admin", err)
	}

	if err := auth.CheckPassword(admin.PasswordHash, password); err != nil {
		s.logger.Info(ctx, "login rejected", "id", admin.ID)
		return nil, common.ErrInvalidCredential
	}

	token, err := auth.GenerateToken(admin.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.Dependency("sign token", err)
	}

	return &LoginResult{Token: token, Admin: admin}, nil
}

func (s *AdminService) Me(ctx context.Context, adminID string) (*models.Admin, error) {
	if adminID == "" {
		return nil, common.ErrMissingCredential
	}
	admin, err := s.repomanager.Admins(s.db).GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.Dependency("get admin", err)
	}
	return admin, nil
}
