package models

import "time"

// ContentTypeFolder 标记逻辑文件夹，size 恒为 0 且不占用 OSS 存储。
const ContentTypeFolder = "folder"

// File 的删除是逻辑删除（is_deleted），物理清理由带外任务完成。
// 文件记录不随用户删除级联删除。
type File struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	ContentType string    `gorm:"type:varchar(255)" json:"content_type"`
	Size        int64     `gorm:"not null" json:"size"`
	OSSKey      string    `gorm:"column:oss_key;type:varchar(1024)" json:"oss_key"`
	Path        string    `gorm:"type:varchar(1024);default:'/'" json:"path"`
	IsDeleted   bool      `gorm:"default:false;index" json:"is_deleted"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (f *File) IsFolder() bool {
	return f.ContentType == ContentTypeFolder
}
