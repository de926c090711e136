package repositories

import (
	"context"

	"github.com/Honahec/CloudBackend/models"

	"gorm.io/gorm"
)

type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(_ context.Context, tx *gorm.DB, file *models.File) error {
	return useTx(r.db, tx).Create(file).Error
}

func (r *GormFileRepository) GetByIDAndUser(_ context.Context, tx *gorm.DB, fileID uint, userID uint) (models.File, error) {
	var file models.File
	err := useTx(r.db, tx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", fileID, userID, false).
		First(&file).Error
	return file, err
}

func (r *GormFileRepository) ListByUserAndPath(_ context.Context, tx *gorm.DB, userID uint, path string) ([]models.File, error) {
	var files []models.File
	err := useTx(r.db, tx).
		Where("user_id = ? AND path = ? AND is_deleted = ?", userID, path, false).
		Order("content_type = 'folder' DESC, name ASC").
		Find(&files).Error
	return files, err
}

func (r *GormFileRepository) ListActiveByIDsAndUser(_ context.Context, tx *gorm.DB, userID uint, fileIDs []uint) ([]models.File, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}
	var files []models.File
	err := useTx(r.db, tx).
		Where("id IN ? AND user_id = ? AND is_deleted = ?", fileIDs, userID, false).
		Find(&files).Error
	return files, err
}

func (r *GormFileRepository) UpdateByIDAndUser(_ context.Context, tx *gorm.DB, fileID uint, userID uint, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.File{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", fileID, userID, false).
		Updates(updates).Error
}

func (r *GormFileRepository) SoftDeleteByIDAndUser(_ context.Context, tx *gorm.DB, fileID uint, userID uint) error {
	return useTx(r.db, tx).Model(&models.File{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", fileID, userID, false).
		Update("is_deleted", true).Error
}

func (r *GormFileRepository) SumActiveSizesByUser(_ context.Context, tx *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := useTx(r.db, tx).Model(&models.File{}).
		Where("user_id = ? AND is_deleted = ? AND content_type <> ?", userID, false, models.ContentTypeFolder).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error
	return total, err
}
