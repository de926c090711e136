package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/Honahec/CloudBackend/repositories"

	"gorm.io/gorm"
)

type StorageInfoOutput struct {
	Quota          int64   `json:"quota"`
	UsedSpace      int64   `json:"used_space"`
	AvailableSpace int64   `json:"available_space"`
	UsagePercent   float64 `json:"usage_percent"`
}

type UserService interface {
	GetStorageInfo(ctx context.Context, userID uint) (StorageInfoOutput, error)
	// RecalculateStorage 以文件表为准重算 used_space，修复计数漂移。
	RecalculateStorage(ctx context.Context, userID uint) (StorageInfoOutput, error)
}

type userService struct {
	txManager TxManager
	users     repositories.UserRepository
	files     repositories.FileRepository
}

func NewUserService(txManager TxManager, users repositories.UserRepository, files repositories.FileRepository) UserService {
	return &userService{txManager: txManager, users: users, files: files}
}

func (s *userService) GetStorageInfo(ctx context.Context, userID uint) (StorageInfoOutput, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StorageInfoOutput{}, newAppError(http.StatusNotFound, CodeNotFound, "user not found", nil)
		}
		return StorageInfoOutput{}, newAppError(http.StatusInternalServerError, CodeInternalError, "failed to query user", err)
	}

	return storageInfo(user.Quota, user.UsedSpace), nil
}

func (s *userService) RecalculateStorage(ctx context.Context, userID uint) (StorageInfoOutput, error) {
	var out StorageInfoOutput
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		user, err := s.users.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		total, err := s.files.SumActiveSizesByUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := s.users.SetUsedSpace(ctx, tx, userID, total); err != nil {
			return err
		}
		out = storageInfo(user.Quota, total)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StorageInfoOutput{}, newAppError(http.StatusNotFound, CodeNotFound, "user not found", nil)
		}
		return StorageInfoOutput{}, newAppError(http.StatusInternalServerError, CodeInternalError, "failed to recalculate storage", err)
	}
	return out, nil
}

func storageInfo(quota, used int64) StorageInfoOutput {
	usagePercent := 0.0
	if quota > 0 {
		usagePercent = float64(used) / float64(quota) * 100
	}
	return StorageInfoOutput{
		Quota:          quota,
		UsedSpace:      used,
		AvailableSpace: quota - used,
		UsagePercent:   usagePercent,
	}
}
