package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Honahec/CloudBackend/config"
	"github.com/Honahec/CloudBackend/models"
	"github.com/Honahec/CloudBackend/repositories"
	"github.com/Honahec/CloudBackend/utils"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthUser struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type LoginOutput struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

type ProfileOutput struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Quota       int64     `json:"quota"`
	UsedSpace   int64     `json:"used_space"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (AuthUser, error)
	Login(ctx context.Context, in LoginInput) (LoginOutput, error)
	GetProfile(ctx context.Context, userID uint) (ProfileOutput, error)
	ChangePassword(ctx context.Context, userID uint, oldPassword string, newPassword string) error
}

type authService struct {
	users repositories.UserRepository
}

func NewAuthService(users repositories.UserRepository) AuthService {
	return &authService{users: users}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (AuthUser, error) {
	count, err := s.users.CountByUsername(ctx, in.Username)
	if err != nil {
		return AuthUser{}, newAppError(http.StatusInternalServerError, CodeInternalError, "failed to check username", err)
	}
	if count > 0 {
		return AuthUser{}, newAppError(http.StatusBadRequest, CodeValidationError, "用户名已存在", nil)
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return AuthUser{}, newAppError(http.StatusInternalServerError, CodeInternalError, "failed to hash password", err)
	}

	user := models.User{
		Username:    in.Username,
		Password:    hashedPassword,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		Quota:       config.AppConfig.Storage.DefaultUserQuota,
	}
	if err := s.users.Create(ctx, nil, &user); err != nil {
		return AuthUser{}, newAppError(http.StatusInternalServerError, CodeInternalError, "failed to create user", err)
	}

	return AuthUser{ID: user.ID, Username: user.Username, DisplayName: user.DisplayName, Email: user.Email}, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	user, err := s.users.GetByUsername(ctx, nil, in.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginOutput{}, newAppError(http.StatusUnauthorized, CodePermissionDenied, "用户名或密码错误", nil)
		}
		return LoginOutput{}, newAppError(http.StatusInternalServerError, CodeInternalError, "failed to query user", err)
	}

	if !utils.CheckPassword(in.Password, user.Password) {
		return LoginOutput{}, newAppError(http.StatusUnauthorized, CodePermissionDenied, "用户名或密码错误", nil)
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		return LoginOutput{}, newAppError(http.StatusInternalServerError, CodeInternalError, "failed to generate token", err)
	}

	return LoginOutput{
		Token: token,
		User:  AuthUser{ID: user.ID, Username: user.Username, DisplayName: user.DisplayName, Email: user.Email},
	}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID uint) (ProfileOutput, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProfileOutput{}, newAppError(http.StatusNotFound, CodeNotFound, "user not found", nil)
		}
		return ProfileOutput{}, newAppError(http.StatusInternalServerError, CodeInternalError, "failed to query user", err)
	}

	return ProfileOutput{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Quota:       user.Quota,
		UsedSpace:   user.UsedSpace,
		CreatedAt:   user.CreatedAt,
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, oldPassword string, newPassword string) error {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusNotFound, CodeNotFound, "user not found", nil)
		}
		return newAppError(http.StatusInternalServerError, CodeInternalError, "failed to query user", err)
	}

	if !utils.CheckPassword(oldPassword, user.Password) {
		return newAppError(http.StatusBadRequest, CodeValidationError, "旧密码错误", nil)
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		return newAppError(http.StatusInternalServerError, CodeInternalError, "failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, nil, userID, hashedPassword); err != nil {
		return newAppError(http.StatusInternalServerError, CodeInternalError, "failed to update password", err)
	}
	return nil
}
