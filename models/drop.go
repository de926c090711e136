package models

import "time"

// Drop 是文件分享链接。文件集合在创建时快照，之后不可变。
// is_expired 一旦置位不再回退，即使时钟回拨。
type Drop struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Code             string    `gorm:"type:varchar(64);not null;index" json:"code"` // 分享码，活跃分享间唯一
	Password         string    `gorm:"type:varchar(255)" json:"-"`                  // bcrypt 哈希，空串表示无密码
	RequireLogin     bool      `gorm:"default:false" json:"require_login"`
	ExpireTime       time.Time `gorm:"not null" json:"expire_time"`
	IsExpired        bool      `gorm:"default:false" json:"is_expired"`
	DownloadCount    int       `gorm:"default:0" json:"download_count"`
	MaxDownloadCount int       `gorm:"not null" json:"max_download_count"`
	IsDeleted        bool      `gorm:"default:false;index" json:"is_deleted"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Files []File `gorm:"many2many:drop_files" json:"files,omitempty"`
}
