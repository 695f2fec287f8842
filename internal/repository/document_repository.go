// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/internal/model"
)

// DocumentRepository 接口定义了文档元数据的持久化操作。
// 未知文档 ID 统一返回 apperr.ErrNotFound。
type DocumentRepository interface {
	Create(doc *model.Document) error
	FindByID(id string) (*model.Document, error)
	FindAll() ([]model.Document, error)
	// MarkReady 记录提取文本并将文档状态置为已就绪。
	MarkReady(id string, extractedText string) error
	// MarkFailed 将文档状态置为失败（不记录失败原因）。
	MarkFailed(id string) error
	Delete(id string) error
}

// documentRepository 是 DocumentRepository 接口的 GORM 实现。
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 在数据库中创建一条新的文档记录。
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// FindByID 根据文档 ID 检索文档记录。
func (r *documentRepository) FindByID(id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return &doc, nil
}

// FindAll 返回所有文档记录，按创建时间升序。
func (r *documentRepository) FindAll() ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Order("created_at asc").Find(&docs).Error
	return docs, err
}

// MarkReady 记录提取文本并将状态置为已就绪。
func (r *documentRepository) MarkReady(id string, extractedText string) error {
	result := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":         model.StatusReady,
		"extracted_text": extractedText,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %s", apperr.ErrNotFound, id)
	}
	return nil
}

// MarkFailed 将状态置为失败。
func (r *documentRepository) MarkFailed(id string) error {
	result := r.db.Model(&model.Document{}).Where("id = ?", id).Update("status", model.StatusFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %s", apperr.ErrNotFound, id)
	}
	return nil
}

// Delete 删除文档记录。删除不存在的记录返回 apperr.ErrNotFound。
func (r *documentRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&model.Document{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %s", apperr.ErrNotFound, id)
	}
	return nil
}
