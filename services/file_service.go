package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Honahec/CloudBackend/config"
	"github.com/Honahec/CloudBackend/logger"
	"github.com/Honahec/CloudBackend/models"
	"github.com/Honahec/CloudBackend/oss"
	"github.com/Honahec/CloudBackend/repositories"

	"gorm.io/gorm"
)

type CreateFolderInput struct {
	FolderName string
	Path       string
}

type DownloadURLOutput struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

type FileService interface {
	ListFiles(ctx context.Context, userID uint, path string) ([]models.File, error)
	CreateFolder(ctx context.Context, userID uint, in CreateFolderInput) (models.File, error)
	RenameFile(ctx context.Context, userID uint, fileID uint, name string) (models.File, error)
	MoveFile(ctx context.Context, userID uint, fileID uint, newPath string) error
	DeleteFile(ctx context.Context, userID uint, fileID uint) error
	GetDownloadURL(ctx context.Context, userID uint, fileID uint) (DownloadURLOutput, error)
}

type fileService struct {
	txManager TxManager
	users     repositories.UserRepository
	files     repositories.FileRepository
	gateway   oss.Gateway
}

func NewFileService(txManager TxManager, users repositories.UserRepository, files repositories.FileRepository, gateway oss.Gateway) FileService {
	return &fileService{txManager: txManager, users: users, files: files, gateway: gateway}
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func (s *fileService) ListFiles(ctx context.Context, userID uint, path string) ([]models.File, error) {
	files, err := s.files.ListByUserAndPath(ctx, nil, userID, normalizePath(path))
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, CodeInternalError, "查询文件列表失败", err)
	}
	return files, nil
}

// CreateFolder 创建逻辑文件夹：content_type 固定为 folder，size 为 0，
// 不占用 OSS 存储也不计入配额。
func (s *fileService) CreateFolder(ctx context.Context, userID uint, in CreateFolderInput) (models.File, error) {
	if in.FolderName == "" {
		return models.File{}, newAppError(http.StatusBadRequest, CodeValidationError, "需要提供 folder_name", nil)
	}

	folder := models.File{
		UserID:      userID,
		Name:        in.FolderName,
		ContentType: models.ContentTypeFolder,
		Size:        0,
		OSSKey:      "",
		Path:        normalizePath(in.Path),
	}
	if err := s.files.Create(ctx, nil, &folder); err != nil {
		return models.File{}, newAppError(http.StatusInternalServerError, CodeInternalError, "创建文件夹失败", err)
	}
	return folder, nil
}

func (s *fileService) RenameFile(ctx context.Context, userID uint, fileID uint, name string) (models.File, error) {
	if name == "" {
		return models.File{}, newAppError(http.StatusBadRequest, CodeValidationError, "文件名不能为空", nil)
	}

	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.File{}, newAppError(http.StatusNotFound, CodeNotFound, "文件不存在", nil)
		}
		return models.File{}, newAppError(http.StatusInternalServerError, CodeInternalError, "查询文件失败", err)
	}

	if err := s.files.UpdateByIDAndUser(ctx, nil, fileID, userID, map[string]interface{}{"name": name}); err != nil {
		return models.File{}, newAppError(http.StatusInternalServerError, CodeInternalError, "重命名文件失败", err)
	}
	file.Name = name
	return file, nil
}

func (s *fileService) MoveFile(ctx context.Context, userID uint, fileID uint, newPath string) error {
	if _, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusNotFound, CodeNotFound, "文件不存在", nil)
		}
		return newAppError(http.StatusInternalServerError, CodeInternalError, "查询文件失败", err)
	}

	if err := s.files.UpdateByIDAndUser(ctx, nil, fileID, userID, map[string]interface{}{"path": normalizePath(newPath)}); err != nil {
		return newAppError(http.StatusInternalServerError, CodeInternalError, "移动文件失败", err)
	}
	return nil
}

// DeleteFile 逻辑删除文件记录并在同一事务里回退配额；blob 删除是尽力而为，
// 失败只记日志（物理清理由带外任务兜底）。
func (s *fileService) DeleteFile(ctx context.Context, userID uint, fileID uint) error {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusNotFound, CodeNotFound, "文件不存在", nil)
		}
		return newAppError(http.StatusInternalServerError, CodeInternalError, "查询文件失败", err)
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.files.SoftDeleteByIDAndUser(ctx, tx, fileID, userID); err != nil {
			return err
		}
		if file.IsFolder() {
			return nil
		}
		return s.users.SubUsedSpace(ctx, tx, userID, file.Size)
	})
	if err != nil {
		return newAppError(http.StatusInternalServerError, CodeInternalError, "删除文件失败", err)
	}

	if !file.IsFolder() && file.OSSKey != "" {
		if delErr := s.gateway.DeleteObject(ctx, file.OSSKey); delErr != nil {
			logger.Warnf("删除 OSS 对象失败 key=%s: %v", file.OSSKey, delErr)
		}
	}
	return nil
}

func (s *fileService) GetDownloadURL(ctx context.Context, userID uint, fileID uint) (DownloadURLOutput, error) {
	file, err := s.files.GetByIDAndUser(ctx, nil, fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DownloadURLOutput{}, newAppError(http.StatusNotFound, CodeNotFound, "文件不存在", nil)
		}
		return DownloadURLOutput{}, newAppError(http.StatusInternalServerError, CodeInternalError, "查询文件失败", err)
	}
	if file.IsFolder() {
		return DownloadURLOutput{}, newAppError(http.StatusBadRequest, CodeValidationError, "文件夹不可下载", nil)
	}

	expire := config.AppConfig.Storage.DownloadExpire
	url, err := s.gateway.IssueDownloadURL(ctx, file.OSSKey, time.Duration(expire)*time.Second)
	if err != nil {
		return DownloadURLOutput{}, newAppError(http.StatusBadGateway, CodeGatewayError, "生成下载链接失败", err)
	}
	return DownloadURLOutput{URL: url, ExpiresIn: expire}, nil
}
