package repositories

import (
	"context"

	"github.com/Honahec/CloudBackend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) CountByUsername(_ context.Context, username string) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count, err
}

func (r *GormUserRepository) Create(_ context.Context, tx *gorm.DB, user *models.User) error {
	return useTx(r.db, tx).Create(user).Error
}

func (r *GormUserRepository) GetByUsername(_ context.Context, tx *gorm.DB, username string) (models.User, error) {
	var user models.User
	err := useTx(r.db, tx).Where("username = ?", username).First(&user).Error
	return user, err
}

func (r *GormUserRepository) GetByID(_ context.Context, tx *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	err := useTx(r.db, tx).First(&user, userID).Error
	return user, err
}

func (r *GormUserRepository) GetByIDForUpdate(_ context.Context, tx *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	err := useTx(r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, userID).Error
	return user, err
}

func (r *GormUserRepository) AddUsedSpace(_ context.Context, tx *gorm.DB, userID uint, delta int64) error {
	if delta == 0 {
		return nil
	}
	return useTx(r.db, tx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("used_space", gorm.Expr("used_space + ?", delta)).Error
}

func (r *GormUserRepository) SubUsedSpace(_ context.Context, tx *gorm.DB, userID uint, delta int64) error {
	if delta <= 0 {
		return nil
	}
	return useTx(r.db, tx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("used_space", gorm.Expr("GREATEST(used_space - ?, 0)", delta)).Error
}

func (r *GormUserRepository) SetUsedSpace(_ context.Context, tx *gorm.DB, userID uint, usedSpace int64) error {
	return useTx(r.db, tx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("used_space", usedSpace).Error
}

func (r *GormUserRepository) UpdatePassword(_ context.Context, tx *gorm.DB, userID uint, hashedPassword string) error {
	return useTx(r.db, tx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword).Error
}
