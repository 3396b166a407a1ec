package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"leafchat/internal/common"
	"leafchat/internal/config"
	"leafchat/internal/dbmysql"
)

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*dbmysql.User, string, error)
	Login(ctx context.Context, email, password string) (*dbmysql.User, string, error)
	ListOthers(ctx context.Context, userID string) ([]*dbmysql.User, error)
	UpdateProfile(ctx context.Context, userID, name, email string) (*dbmysql.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type userService struct {
	userRepo UserRepository
	tokenTTL time.Duration
}

func NewUserService(userRepo UserRepository, cnf *config.Config) UserService {
	return &userService{
		userRepo: userRepo,
		tokenTTL: time.Duration(cnf.Auth.TokenTTLHours) * time.Hour,
	}
}

func (s *userService) Register(ctx context.Context, name, email, password string) (*dbmysql.User, string, error) {
	if err := common.ValidateName(name); err != nil {
		return nil, "", err
	}
	if err := common.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := common.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	email = strings.ToLower(strings.TrimSpace(email))

	taken, err := s.userRepo.EmailTaken(ctx, email)
	if err != nil {
		return nil, "", common.StoreError(err)
	}
	if taken {
		return nil, "", common.ValidationError("email already in use")
	}

	hashed, err := common.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &dbmysql.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hashed,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, "", common.StoreError(err)
	}

	token, err := common.GenerateToken(user.ID, user.Name, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*dbmysql.User, string, error) {
	if email == "" || password == "" {
		return nil, "", common.ValidationError("email and password required")
	}

	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", common.ErrUnauthorized
	}
	if err != nil {
		return nil, "", common.StoreError(err)
	}

	if err := common.CheckPassword(password, user.PasswordHash); err != nil {
		return nil, "", common.ErrUnauthorized
	}

	token, err := common.GenerateToken(user.ID, user.Name, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *userService) ListOthers(ctx context.Context, userID string) ([]*dbmysql.User, error) {
	if userID == "" {
		return nil, common.ErrUnauthorized
	}
	users, err := s.userRepo.ListOthers(ctx, userID)
	if err != nil {
		return nil, common.StoreError(err)
	}
	return users, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID, name, email string) (*dbmysql.User, error) {
	if userID == "" {
		return nil, common.ErrUnauthorized
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.StoreError(err)
	}

	if name != "" {
		if err := common.ValidateName(name); err != nil {
			return nil, err
		}
		user.Name = strings.TrimSpace(name)
	}
	if email != "" {
		if err := common.ValidateEmail(email); err != nil {
			return nil, err
		}
		user.Email = strings.ToLower(strings.TrimSpace(email))
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, common.StoreError(err)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if userID == "" {
		return common.ErrUnauthorized
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound
	}
	if err != nil {
		return common.StoreError(err)
	}

	if err := common.CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return fmt.Errorf("%w: incorrect password", common.ErrForbidden)
	}
	if err := common.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := common.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return common.StoreError(err)
	}
	return nil
}
