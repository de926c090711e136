package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Honahec/CloudBackend/config"
	"github.com/Honahec/CloudBackend/logger"
	"github.com/Honahec/CloudBackend/models"
	"github.com/Honahec/CloudBackend/oss"
	"github.com/Honahec/CloudBackend/repositories"
	"github.com/Honahec/CloudBackend/utils"

	"gorm.io/gorm"
)

type CreateDropInput struct {
	FileIDs          []uint
	ExpireDays       int
	Code             string
	RequireLogin     bool
	MaxDownloadCount int
	Password         string
}

// Viewer 是访问分享的主体，可能未登录。
type Viewer struct {
	UserID        uint
	Authenticated bool
}

type ResolveDropOutput struct {
	Drop  models.Drop   `json:"drop"`
	Files []models.File `json:"files"`
}

type DropService interface {
	CreateDrop(ctx context.Context, userID uint, in CreateDropInput) (models.Drop, error)
	ListDrops(ctx context.Context, userID uint) ([]models.Drop, error)
	ResolveDrop(ctx context.Context, code string, password string, viewer Viewer) (ResolveDropOutput, error)
	GetDropFileDownloadURL(ctx context.Context, code string, password string, viewer Viewer, fileID uint) (string, error)
	DeleteDrop(ctx context.Context, userID uint, dropID uint) error
}

type dropService struct {
	txManager TxManager
	drops     repositories.DropRepository
	files     repositories.FileRepository
	gateway   oss.Gateway
}

func NewDropService(txManager TxManager, drops repositories.DropRepository, files repositories.FileRepository, gateway oss.Gateway) DropService {
	return &dropService{txManager: txManager, drops: drops, files: files, gateway: gateway}
}

func (s *dropService) CreateDrop(ctx context.Context, userID uint, in CreateDropInput) (models.Drop, error) {
	if in.Code == "" || len(in.Code) > 64 {
		return models.Drop{}, newAppError(http.StatusBadRequest, CodeValidationError, "分享码不能为空且不超过 64 字符", nil)
	}
	if in.ExpireDays <= 0 {
		return models.Drop{}, newAppError(http.StatusBadRequest, CodeValidationError, "有效天数必须大于 0", nil)
	}
	if in.MaxDownloadCount <= 0 {
		return models.Drop{}, newAppError(http.StatusBadRequest, CodeValidationError, "最大下载次数必须大于 0", nil)
	}
	if len(in.FileIDs) == 0 {
		return models.Drop{}, newAppError(http.StatusBadRequest, CodeValidationError, "分享文件列表不能为空", nil)
	}

	// 文件集合在创建时快照：只接受本人未删除的文件
	files, err := s.files.ListActiveByIDsAndUser(ctx, nil, userID, in.FileIDs)
	if err != nil {
		return models.Drop{}, newAppError(http.StatusInternalServerError, CodeInternalError, "查询分享文件失败", err)
	}
	if len(files) != len(in.FileIDs) {
		return models.Drop{}, newAppError(http.StatusNotFound, CodeNotFound, "部分文件不存在或已删除", nil)
	}

	hashedPassword := ""
	if in.Password != "" {
		hashedPassword, err = utils.HashPassword(in.Password)
		if err != nil {
			return models.Drop{}, newAppError(http.StatusInternalServerError, CodeInternalError, "处理分享密码失败", err)
		}
	}

	drop := models.Drop{
		UserID:           userID,
		Code:             in.Code,
		Password:         hashedPassword,
		RequireLogin:     in.RequireLogin,
		ExpireTime:       time.Now().Add(time.Duration(in.ExpireDays) * 24 * time.Hour),
		MaxDownloadCount: in.MaxDownloadCount,
	}

	// code 在活跃分享间必须唯一，查重与创建放进同一事务
	var codeTaken *AppError
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		count, err := s.drops.CountActiveByCode(ctx, tx, in.Code, 0)
		if err != nil {
			return err
		}
		if count > 0 {
			codeTaken = newAppError(http.StatusBadRequest, CodeValidationError, "分享码已被使用", nil)
			return codeTaken
		}
		return s.drops.Create(ctx, tx, &drop, files)
	})
	if err != nil {
		if codeTaken != nil {
			return models.Drop{}, codeTaken
		}
		return models.Drop{}, newAppError(http.StatusInternalServerError, CodeInternalError, "创建分享失败", err)
	}

	drop.Files = files
	return drop, nil
}

func (s *dropService) ListDrops(ctx context.Context, userID uint) ([]models.Drop, error) {
	drops, err := s.drops.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, newAppError(http.StatusInternalServerError, CodeInternalError, "查询分享列表失败", err)
	}
	return drops, nil
}

// ResolveDrop 按固定顺序闸门：过期 → 登录 → 密码 → 下载次数。
// 顺序不可调整，调用方依赖它拿到最具体的错误。
func (s *dropService) ResolveDrop(ctx context.Context, code string, password string, viewer Viewer) (ResolveDropOutput, error) {
	drop, err := s.getDropByCode(ctx, code)
	if err != nil {
		return ResolveDropOutput{}, err
	}

	if err := s.checkAccessGates(ctx, &drop, password, viewer); err != nil {
		return ResolveDropOutput{}, err
	}

	// 计数是共享计数器上的读改写，必须锁行后复查上限再加一
	var limitErr *AppError
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.drops.GetByIDForUpdate(ctx, tx, drop.ID)
		if err != nil {
			return err
		}
		if locked.DownloadCount >= locked.MaxDownloadCount {
			limitErr = newAppError(http.StatusForbidden, CodeDownloadLimitExceeded, "下载次数已达上限", nil)
			return limitErr
		}
		return s.drops.UpdateByID(ctx, tx, drop.ID, map[string]interface{}{
			"download_count": locked.DownloadCount + 1,
		})
	})
	if err != nil {
		if limitErr != nil {
			return ResolveDropOutput{}, limitErr
		}
		return ResolveDropOutput{}, newAppError(http.StatusInternalServerError, CodeInternalError, "更新下载计数失败", err)
	}

	drop.DownloadCount++
	return ResolveDropOutput{Drop: drop, Files: drop.Files}, nil
}

// GetDropFileDownloadURL 为分享内的单个文件签发下载链接。
// 过期/登录/密码闸门照常生效；下载上限不在此处复查——解析时已计数，
// 紧随其后的成员文件取用不应再被上限挡住。
func (s *dropService) GetDropFileDownloadURL(ctx context.Context, code string, password string, viewer Viewer, fileID uint) (string, error) {
	drop, err := s.getDropByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if err := s.checkAccessGates(ctx, &drop, password, viewer); err != nil {
		return "", err
	}

	var file *models.File
	for i := range drop.Files {
		if drop.Files[i].ID == fileID {
			file = &drop.Files[i]
			break
		}
	}
	if file == nil {
		return "", newAppError(http.StatusNotFound, CodeNotFound, "文件不属于此分享或已删除", nil)
	}
	if file.IsFolder() {
		return "", newAppError(http.StatusBadRequest, CodeValidationError, "文件夹不可下载", nil)
	}

	ttl := time.Duration(config.AppConfig.Storage.DownloadExpire) * time.Second
	url, err := s.gateway.IssueDownloadURL(ctx, file.OSSKey, ttl)
	if err != nil {
		return "", newAppError(http.StatusBadGateway, CodeGatewayError, "生成下载链接失败", err)
	}
	return url, nil
}

func (s *dropService) DeleteDrop(ctx context.Context, userID uint, dropID uint) error {
	if _, err := s.drops.GetByIDAndUser(ctx, nil, dropID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newAppError(http.StatusNotFound, CodeNotFound, "分享不存在", nil)
		}
		return newAppError(http.StatusInternalServerError, CodeInternalError, "查询分享失败", err)
	}
	if err := s.drops.SoftDeleteByIDAndUser(ctx, nil, dropID, userID); err != nil {
		return newAppError(http.StatusInternalServerError, CodeInternalError, "删除分享失败", err)
	}
	return nil
}

func (s *dropService) getDropByCode(ctx context.Context, code string) (models.Drop, error) {
	drop, err := s.drops.GetByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Drop{}, newAppError(http.StatusNotFound, CodeNotFound, "分享不存在", nil)
		}
		return models.Drop{}, newAppError(http.StatusInternalServerError, CodeInternalError, "查询分享失败", err)
	}
	return drop, nil
}

// checkAccessGates 执行过期、登录、密码三道闸门（顺序固定）。
// 过期在每次读取时惰性判定，首次观察到即持久置位；标志一旦置位不再回退。
func (s *dropService) checkAccessGates(ctx context.Context, drop *models.Drop, password string, viewer Viewer) error {
	if drop.IsExpired {
		return newAppError(http.StatusGone, CodeDropExpired, "分享已过期", nil)
	}
	if time.Now().After(drop.ExpireTime) {
		if err := s.drops.UpdateByID(ctx, nil, drop.ID, map[string]interface{}{"is_expired": true}); err != nil {
			logger.Warnf("持久化分享过期标志失败 drop_id=%d: %v", drop.ID, err)
		}
		drop.IsExpired = true
		return newAppError(http.StatusGone, CodeDropExpired, "分享已过期", nil)
	}

	if drop.RequireLogin && !viewer.Authenticated {
		return newAppError(http.StatusUnauthorized, CodeLoginRequired, "此分享需要登录后访问", nil)
	}

	if drop.Password != "" && !utils.CheckPassword(password, drop.Password) {
		return newAppError(http.StatusForbidden, CodeWrongPassword, "分享密码错误", nil)
	}

	return nil
}
