package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/apperrors"
	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/repos"
	"github.com/prodmanhq/prodman-backend/internal/types"
	"github.com/prodmanhq/prodman-backend/internal/utils"
)

type ListUsersInput struct {
	Limit  int
	Page   int
	Search string
	Role   string
}

type CreateUserInput struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UpdateUserInput struct {
	Name     *string `json:"name"`
	LastName *string `json:"lastName"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
}

type CredentialsInput struct {
	CurrentPassword string `json:"currentPassword"`
	Email           string `json:"email"`
	Password        string `json:"password"`
}

type UserPage struct {
	Data     []*types.User `json:"data"`
	NextPage *int          `json:"nextPage"`
	PrevPage *int          `json:"prevPage"`
}

type UserService interface {
	List(ctx context.Context, input ListUsersInput) (*UserPage, error)
	Get(ctx context.Context, userID uuid.UUID) (*types.User, error)
	Create(ctx context.Context, input CreateUserInput) (*types.User, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateUserInput) (*types.User, error)
	// UpdateCredentials replaces email and/or password after verifying the
	// caller knows the current password.
	UpdateCredentials(ctx context.Context, userID uuid.UUID, input CredentialsInput) (*types.User, error)
	ActiveWorkers(ctx context.Context) ([]WorkerView, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) List(ctx context.Context, input ListUsersInput) (*UserPage, error) {
	limit, page := normalizePage(input.Limit, input.Page, 10)
	users, err := us.userRepo.List(ctx, nil, repos.UserFilter{
		Search: input.Search,
		Role:   input.Role,
		Limit:  limit + 1,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperrors.NotFound("Not found")
	}
	users, nextPage, prevPage := trimPage(users, page, limit)
	return &UserPage{Data: users, NextPage: nextPage, PrevPage: prevPage}, nil
}

func (us *userService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (us *userService) Create(ctx context.Context, input CreateUserInput) (*types.User, error) {
	if input.Name == "" || input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, apperrors.Validation("Missing required fields")
	}
	role := input.Role
	if role == "" {
		role = types.RoleWorker
	}
	if role != types.RoleAdmin && role != types.RoleWorker {
		return nil, apperrors.Validation("Invalid role")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &types.User{
		ID:       uuid.New(),
		Name:     input.Name,
		LastName: input.LastName,
		Username: input.Username,
		Email:    input.Email,
		Password: hashed,
		Role:     role,
		Active:   true,
	}
	created, err := us.userRepo.Create(ctx, nil, []*types.User{user})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (us *userService) Update(ctx context.Context, userID uuid.UUID, input UpdateUserInput) (*types.User, error) {
	fields := map[string]interface{}{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.LastName != nil {
		fields["last_name"] = *input.LastName
	}
	if input.Role != nil {
		if *input.Role != types.RoleAdmin && *input.Role != types.RoleWorker {
			return nil, apperrors.Validation("Invalid role")
		}
		fields["role"] = *input.Role
	}
	if input.Active != nil {
		fields["active"] = *input.Active
	}
	if len(fields) == 0 {
		return nil, apperrors.Validation("No fields to update")
	}

	user, err := us.userRepo.Update(ctx, nil, userID, fields)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (us *userService) UpdateCredentials(ctx context.Context, userID uuid.UUID, input CredentialsInput) (*types.User, error) {
	if input.Email == "" && input.Password == "" {
		return nil, apperrors.Validation("Email or password must be provided")
	}

	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Not found")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.Password, input.CurrentPassword) {
		return nil, apperrors.Unauthorized("Invalid current password")
	}

	fields := map[string]interface{}{}
	if input.Email != "" {
		fields["email"] = input.Email
	}
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		fields["password"] = hashed
	}

	updated, err := us.userRepo.Update(ctx, nil, userID, fields)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (us *userService) ActiveWorkers(ctx context.Context) ([]WorkerView, error) {
	workers, err := us.userRepo.ListActiveWorkers(ctx, nil)
	if err != nil {
		return nil, err
	}
	views := make([]WorkerView, 0, len(workers))
	for _, worker := range workers {
		views = append(views, WorkerView{
			ID:       worker.ID,
			Username: worker.Username,
			Name:     worker.Name,
			LastName: worker.LastName,
		})
	}
	return views, nil
}
