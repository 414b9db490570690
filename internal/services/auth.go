package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/sessions"
	"github.com/prodmanhq/prodman-backend/internal/types"
	"github.com/prodmanhq/prodman-backend/internal/utils"
)

const oneDay = 24 * time.Hour

type RegisterInput struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	// Login authenticates a Basic authorization header and opens a session.
	// The session TTL depends on the role: admins get 30 days with
	// rememberMe and 1 day without; workers get the configured
	// workerAutoTimeout seconds, or 1 day when that value is 0.
	Login(ctx context.Context, authHeader string, rememberMe bool) (string, time.Duration, error)
	Register(ctx context.Context, input RegisterInput) error
	Logout(ctx context.Context, sid string) error
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	configService ConfigService
	store         sessions.Store
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, configService ConfigService, store sessions.Store) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		configService: configService,
		store:         store,
	}
}

func (as *authService) Login(ctx context.Context, authHeader string, rememberMe bool) (string, time.Duration, error) {
	identifier, password, err := parseBasicAuth(authHeader)
	if err != nil {
		return "", 0, err
	}

	user, err := as.userRepo.GetByIdentifier(ctx, nil, identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", 0, apperrors.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return "", 0, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return "", 0, apperrors.Unauthorized("Invalid credentials")
	}

	ttl, err := as.sessionTTL(ctx, user, rememberMe)
	if err != nil {
		return "", 0, err
	}

	sid, err := as.store.Create(ctx, sessions.Session{UserID: user.ID, Role: user.Role}, ttl)
	if err != nil {
		return "", 0, err
	}
	as.log.Info("Session opened", "userId", user.ID, "role", user.Role, "ttl", ttl)
	return sid, ttl, nil
}

func (as *authService) sessionTTL(ctx context.Context, user *types.User, rememberMe bool) (time.Duration, error) {
	if user.Role == types.RoleAdmin {
		if rememberMe {
			return 30 * oneDay, nil
		}
		return oneDay, nil
	}
	timeoutSeconds, err := as.configService.GetInt(ctx, types.ConfigKeyWorkerAutoTimeout)
	if err != nil {
		return 0, err
	}
	if timeoutSeconds == 0 {
		return oneDay, nil
	}
	return time.Duration(timeoutSeconds) * time.Second, nil
}

func (as *authService) Register(ctx context.Context, input RegisterInput) error {
	registerEnabled, err := as.configService.GetBool(ctx, types.ConfigKeyRegisterEnabled)
	if err != nil {
		return err
	}
	if !registerEnabled {
		return apperrors.Forbidden("Registration is disabled")
	}

	if input.Name == "" || input.Username == "" || input.Email == "" || input.Password == "" {
		return apperrors.Validation("Missing required fields")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return err
	}

	user := &types.User{
		ID:       uuid.New(),
		Name:     input.Name,
		LastName: input.LastName,
		Username: input.Username,
		Email:    input.Email,
		Password: hashed,
		Role:     types.RoleAdmin,
		Active:   true,
	}
	_, err = as.userRepo.Create(ctx, nil, []*types.User{user})
	return err
}

func (as *authService) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return as.store.Delete(ctx, sid)
}

func parseBasicAuth(authHeader string) (string, string, error) {
	if !strings.HasPrefix(authHeader, "Basic ") {
		return "", "", apperrors.Validation("Missing or invalid authorization header")
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, "Basic "))
	if err != nil {
		return "", "", apperrors.Validation("Missing or invalid authorization header")
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", apperrors.Validation("Missing or invalid authorization header")
	}
	return parts[0], parts[1], nil
}
