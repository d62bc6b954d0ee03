// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"errors"

	"gorm.io/gorm"

	"formfiller-go/internal/model"
)

// DocumentRepository 接口定义了知识库文件元数据的持久化操作。
type DocumentRepository interface {
	Create(doc *model.Document) error
	Update(doc *model.Document) error
	FindAll() ([]model.Document, error)
	FindByMD5(fileMD5 string) (*model.Document, error)
	FindByName(fileName string) (*model.Document, error)
	DeleteByName(fileName string) error
}

// documentRepository 是 DocumentRepository 接口的 GORM 实现。
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 在数据库中创建一条文件元数据记录。
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// Update 保存一条已有记录的全部字段。
func (r *documentRepository) Update(doc *model.Document) error {
	return r.db.Save(doc).Error
}

// FindAll 返回知识库中的所有文件记录。
func (r *documentRepository) FindAll() ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Order("uploaded_at asc").Find(&docs).Error
	return docs, err
}

// FindByMD5 根据文件 MD5 检索记录，不存在时返回 (nil, nil)。
func (r *documentRepository) FindByMD5(fileMD5 string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("file_md5 = ?", fileMD5).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByName 根据文件名检索记录，不存在时返回 (nil, nil)。
func (r *documentRepository) FindByName(fileName string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("file_name = ?", fileName).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteByName 根据文件名删除记录。
func (r *documentRepository) DeleteByName(fileName string) error {
	return r.db.Where("file_name = ?", fileName).Delete(&model.Document{}).Error
}
