package repositories

import (
	"context"
	"time"

	"github.com/Honahec/CloudBackend/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type UserRepository interface {
	CountByUsername(ctx context.Context, username string) (int64, error)
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (models.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error)
	// GetByIDForUpdate 以行锁读取用户，用于配额 check-then-increment 的串行化。
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, userID uint) (models.User, error)
	AddUsedSpace(ctx context.Context, tx *gorm.DB, userID uint, delta int64) error
	SubUsedSpace(ctx context.Context, tx *gorm.DB, userID uint, delta int64) error
	SetUsedSpace(ctx context.Context, tx *gorm.DB, userID uint, usedSpace int64) error
	UpdatePassword(ctx context.Context, tx *gorm.DB, userID uint, hashedPassword string) error
}

type FileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, file *models.File) error
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) (models.File, error)
	ListByUserAndPath(ctx context.Context, tx *gorm.DB, userID uint, path string) ([]models.File, error)
	ListActiveByIDsAndUser(ctx context.Context, tx *gorm.DB, userID uint, fileIDs []uint) ([]models.File, error)
	UpdateByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint, updates map[string]interface{}) error
	SoftDeleteByIDAndUser(ctx context.Context, tx *gorm.DB, fileID uint, userID uint) error
	// SumActiveSizesByUser 统计非删除、非文件夹文件的大小合计，用于配额重算。
	SumActiveSizesByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
}

type DropRepository interface {
	Create(ctx context.Context, tx *gorm.DB, drop *models.Drop, files []models.File) error
	CountActiveByCode(ctx context.Context, tx *gorm.DB, code string, excludeID uint) (int64, error)
	// GetByCode 在非删除分享中按 code 查找，成员文件只预加载未删除的。
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (models.Drop, error)
	GetByIDAndUser(ctx context.Context, tx *gorm.DB, dropID uint, userID uint) (models.Drop, error)
	// GetByIDForUpdate 以行锁读取分享，用于下载计数的串行化。
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, dropID uint) (models.Drop, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]models.Drop, error)
	ContainsFile(ctx context.Context, tx *gorm.DB, dropID uint, fileID uint) (bool, error)
	UpdateByID(ctx context.Context, tx *gorm.DB, dropID uint, updates map[string]interface{}) error
	SoftDeleteByIDAndUser(ctx context.Context, tx *gorm.DB, dropID uint, userID uint) error
	MarkOverdueExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

// UploadSessionRepository 是过期 KV 缓存协作方：令牌签发与上传完成可以
// 由不同进程处理，会话因此放在共享缓存而不是进程内。
type UploadSessionRepository interface {
	Put(ctx context.Context, uploadID string, session models.UploadSession, ttl time.Duration) error
	Get(ctx context.Context, uploadID string) (models.UploadSession, bool, error)
	// Consume 原子地取出并删除会话，保证一个 upload_id 至多被消费一次。
	Consume(ctx context.Context, uploadID string) (models.UploadSession, bool, error)
	Delete(ctx context.Context, uploadID string) error
}

type Container struct {
	TxManager      TxManager
	Users          UserRepository
	Files          FileRepository
	Drops          DropRepository
	UploadSessions UploadSessionRepository
}
