package model

import "time"

// Document 定义了 documents 表的 ORM 模型。
// 它记录了知识库中每个源文件的元数据，文件内容本身存放在 MinIO。
type Document struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FileMD5     string    `gorm:"type:varchar(32);not null;uniqueIndex;column:file_md5" json:"fileMd5"`
	FileName    string    `gorm:"type:varchar(255);not null;column:file_name" json:"name"`
	FileSize    int64     `gorm:"not null;column:file_size" json:"size"`
	ContentType string    `gorm:"type:varchar(100);column:content_type" json:"type"`
	UploadedAt  time.Time `gorm:"autoCreateTime;column:uploaded_at" json:"modified"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}
