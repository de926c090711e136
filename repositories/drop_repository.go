package repositories

import (
	"context"
	"time"

	"github.com/Honahec/CloudBackend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormDropRepository struct {
	db *gorm.DB
}

func NewGormDropRepository(db *gorm.DB) *GormDropRepository {
	return &GormDropRepository{db: db}
}

func (r *GormDropRepository) Create(_ context.Context, tx *gorm.DB, drop *models.Drop, files []models.File) error {
	db := useTx(r.db, tx)
	if err := db.Omit(clause.Associations).Create(drop).Error; err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	// 只写关联表，不回写 File 行
	refs := make([]models.File, len(files))
	for i, f := range files {
		refs[i] = models.File{ID: f.ID}
	}
	return db.Model(drop).Omit("Files.*").Association("Files").Append(refs)
}

func (r *GormDropRepository) CountActiveByCode(_ context.Context, tx *gorm.DB, code string, excludeID uint) (int64, error) {
	var count int64
	q := useTx(r.db, tx).Model(&models.Drop{}).
		Where("code = ? AND is_deleted = ?", code, false)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *GormDropRepository) GetByCode(_ context.Context, tx *gorm.DB, code string) (models.Drop, error) {
	var drop models.Drop
	err := useTx(r.db, tx).
		Preload("Files", "is_deleted = ?", false).
		Where("code = ? AND is_deleted = ?", code, false).
		First(&drop).Error
	return drop, err
}

func (r *GormDropRepository) GetByIDAndUser(_ context.Context, tx *gorm.DB, dropID uint, userID uint) (models.Drop, error) {
	var drop models.Drop
	err := useTx(r.db, tx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", dropID, userID, false).
		First(&drop).Error
	return drop, err
}

func (r *GormDropRepository) GetByIDForUpdate(_ context.Context, tx *gorm.DB, dropID uint) (models.Drop, error) {
	var drop models.Drop
	err := useTx(r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_deleted = ?", dropID, false).
		First(&drop).Error
	return drop, err
}

func (r *GormDropRepository) ListByUser(_ context.Context, tx *gorm.DB, userID uint) ([]models.Drop, error) {
	var drops []models.Drop
	err := useTx(r.db, tx).
		Preload("Files", "is_deleted = ?", false).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC").
		Find(&drops).Error
	return drops, err
}

func (r *GormDropRepository) ContainsFile(_ context.Context, tx *gorm.DB, dropID uint, fileID uint) (bool, error) {
	var count int64
	err := useTx(r.db, tx).Table("drop_files").
		Where("drop_id = ? AND file_id = ?", dropID, fileID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormDropRepository) UpdateByID(_ context.Context, tx *gorm.DB, dropID uint, updates map[string]interface{}) error {
	return useTx(r.db, tx).Model(&models.Drop{}).
		Where("id = ?", dropID).
		Updates(updates).Error
}

func (r *GormDropRepository) SoftDeleteByIDAndUser(_ context.Context, tx *gorm.DB, dropID uint, userID uint) error {
	return useTx(r.db, tx).Model(&models.Drop{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", dropID, userID, false).
		Update("is_deleted", true).Error
}

// MarkOverdueExpired 批量置位过期标志。惰性判定仍在读路径上，
// 这里只是让标志尽早落库。
func (r *GormDropRepository) MarkOverdueExpired(_ context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	result := useTx(r.db, tx).Model(&models.Drop{}).
		Where("is_deleted = ? AND is_expired = ? AND expire_time < ?", false, false, now).
		Update("is_expired", true)
	return result.RowsAffected, result.Error
}
