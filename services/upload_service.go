package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/Honahec/CloudBackend/config"
	"github.com/Honahec/CloudBackend/logger"
	"github.com/Honahec/CloudBackend/models"
	"github.com/Honahec/CloudBackend/oss"
	"github.com/Honahec/CloudBackend/repositories"

	"gorm.io/gorm"
)

type IssueUploadTokenInput struct {
	FileName    string
	FileSize    int64
	ContentType string
}

type UploadTokenOutput struct {
	UploadID string           `json:"upload_id"`
	Token    oss.UploadPolicy `json:"token"`
}

type CompleteUploadInput struct {
	UploadID      string
	ObjectLocator string
	Path          string
}

type UploadService interface {
	IssueUploadToken(ctx context.Context, userID uint, in IssueUploadTokenInput) (UploadTokenOutput, error)
	CompleteUpload(ctx context.Context, userID uint, in CompleteUploadInput) (models.File, error)
}

type uploadService struct {
	txManager TxManager
	users     repositories.UserRepository
	files     repositories.FileRepository
	sessions  repositories.UploadSessionRepository
	gateway   oss.Gateway
}

func NewUploadService(
	txManager TxManager,
	users repositories.UserRepository,
	files repositories.FileRepository,
	sessions repositories.UploadSessionRepository,
	gateway oss.Gateway,
) UploadService {
	return &uploadService{
		txManager: txManager,
		users:     users,
		files:     files,
		sessions:  sessions,
		gateway:   gateway,
	}
}

// newUploadID 由用户、文件名、声明大小和时间戳哈希派生。
// 碰撞概率可忽略，不要求密码学强度。
func newUploadID(userID uint, fileName string, declaredSize int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%d|%d", userID, fileName, declaredSize, time.Now().UnixNano())))
	return hex.EncodeToString(sum[:])
}

func (s *uploadService) IssueUploadToken(ctx context.Context, userID uint, in IssueUploadTokenInput) (UploadTokenOutput, error) {
	if in.FileName == "" {
		return UploadTokenOutput{}, newAppError(http.StatusBadRequest, CodeValidationError, "文件名不能为空", nil)
	}
	if in.FileSize <= 0 {
		return UploadTokenOutput{}, newAppError(http.StatusBadRequest, CodeValidationError, "文件大小必须大于 0", nil)
	}
	if in.ContentType == models.ContentTypeFolder {
		return UploadTokenOutput{}, newAppError(http.StatusBadRequest, CodeValidationError, "不允许上传 folder 类型", nil)
	}

	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return UploadTokenOutput{}, newAppError(http.StatusInternalServerError, CodeInternalError, "查询用户失败", err)
	}
	if user.UsedSpace+in.FileSize > user.Quota {
		return UploadTokenOutput{}, quotaExceededError(user, in.FileSize)
	}

	policy, err := s.gateway.IssueUploadPolicy(ctx, userID, in.FileSize)
	if err != nil {
		return UploadTokenOutput{}, newAppError(http.StatusBadGateway, CodeGatewayError, "生成上传凭证失败", err)
	}

	uploadID := newUploadID(userID, in.FileName, in.FileSize)
	session := models.UploadSession{
		UserID:       userID,
		FileName:     in.FileName,
		DeclaredSize: in.FileSize,
		ContentType:  in.ContentType,
	}
	ttl := time.Duration(config.AppConfig.Storage.UploadSessionTTL) * time.Second
	if err := s.sessions.Put(ctx, uploadID, session, ttl); err != nil {
		return UploadTokenOutput{}, newAppError(http.StatusInternalServerError, CodeInternalError, "保存上传会话失败", err)
	}

	return UploadTokenOutput{UploadID: uploadID, Token: policy}, nil
}

// CompleteUpload 校验客户端的完成声明：会话与归属、对象键派生、HEAD 实测
// 大小、容差比对、按实测大小复查配额，最后在一个事务里提交文件记录与配额
// 增量。步骤 1-5 失败不留下持久副作用（配额复查失败时对孤儿对象做尽力删除
// 除外），事务是唯一的提交点。
func (s *uploadService) CompleteUpload(ctx context.Context, userID uint, in CompleteUploadInput) (models.File, error) {
	session, ok, err := s.sessions.Get(ctx, in.UploadID)
	if err != nil {
		return models.File{}, newAppError(http.StatusInternalServerError, CodeInternalError, "读取上传会话失败", err)
	}
	if !ok {
		// 会话过期与重放走同一条路径
		return models.File{}, newAppError(http.StatusNotFound, CodeSessionNotFound, "上传会话不存在或已过期", nil)
	}
	if session.UserID != userID {
		return models.File{}, newAppError(http.StatusForbidden, CodePermissionDenied, "无权操作此上传会话", nil)
	}

	objectKey := oss.ObjectKeyFromLocator(in.ObjectLocator, config.AppConfig.OSS.Bucket)
	if objectKey == "" {
		return models.File{}, newAppError(http.StatusBadRequest, CodeValidationError, "无效的对象地址", nil)
	}

	actualSize, err := s.gateway.GetObjectSize(ctx, objectKey)
	if err != nil {
		return models.File{}, newAppError(http.StatusBadGateway, CodeVerificationFailed, "校验对象大小失败", err)
	}

	tolerance := config.AppConfig.Storage.SizeTolerance
	diff := actualSize - session.DeclaredSize
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		return models.File{}, newAppErrorWithData(http.StatusBadRequest, CodeSizeMismatch, "文件大小与声明不符", map[string]interface{}{
			"declared_size": session.DeclaredSize,
			"actual_size":   actualSize,
			"tolerance":     tolerance,
		}, nil)
	}

	path := in.Path
	if path == "" {
		path = "/"
	}

	file := models.File{
		UserID:      userID,
		Name:        session.FileName,
		ContentType: session.ContentType,
		Size:        actualSize,
		OSSKey:      objectKey,
		Path:        path,
	}

	// 配额复查必须以实测大小、在行锁下进行：声明与实测有偏差，且签发令牌
	// 之后并发上传可能已占用配额。
	var quotaErr *AppError
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		user, err := s.users.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.UsedSpace+actualSize > user.Quota {
			quotaErr = quotaExceededError(user, actualSize)
			return quotaErr
		}
		if err := s.files.Create(ctx, tx, &file); err != nil {
			return err
		}
		return s.users.AddUsedSpace(ctx, tx, userID, actualSize)
	})
	if err != nil {
		if quotaErr != nil {
			// 对象已经传上去了，留着只会成为孤儿；删除是尽力而为，
			// 失败只记日志，绝不掩盖配额错误
			if delErr := s.gateway.DeleteObject(ctx, objectKey); delErr != nil {
				logger.Warnf("清理超配额对象失败 key=%s: %v", objectKey, delErr)
			}
			return models.File{}, quotaErr
		}
		return models.File{}, newAppError(http.StatusInternalServerError, CodeInternalError, "保存文件记录失败", err)
	}

	// 提交后消费会话，保证同一 upload_id 的重放拿不到会话
	if _, _, err := s.sessions.Consume(ctx, in.UploadID); err != nil {
		logger.Warnf("删除上传会话失败 upload_id=%s: %v", in.UploadID, err)
	}

	return file, nil
}

func quotaExceededError(user models.User, required int64) *AppError {
	return newAppErrorWithData(http.StatusBadRequest, CodeQuotaExceeded, "存储空间不足", map[string]interface{}{
		"quota":           user.Quota,
		"used_space":      user.UsedSpace,
		"available_space": user.Quota - user.UsedSpace,
		"required_space":  required,
	}, nil)
}
