// Package model 定义了与数据库表对应的 Go 结构体以及对外的 DTO。
package model

import "time"

// 文档处理状态。上传后即进入处理中，流水线成功后置为已就绪，
// 提取文本为空或多次重试失败后置为失败。
const (
	StatusProcessing = 0
	StatusReady      = 1
	StatusFailed     = 2
)

// Document 定义了 documents 表的 ORM 模型。
// 它记录了每个上传文档的元数据、处理状态和提取到的原始文本。
type Document struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileName      string    `gorm:"type:varchar(255);not null" json:"fileName"`
	FileSize      int64     `gorm:"not null" json:"fileSize"`
	Status        int       `gorm:"type:tinyint;not null;default:0" json:"status"` // 0: processing, 1: ready, 2: failed
	ExtractedText string    `gorm:"type:longtext" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

// Ready 返回文档是否可用于问答：索引已构建且提取文本非空。
func (d *Document) Ready() bool {
	return d.Status == StatusReady && d.ExtractedText != ""
}

// StatusLabel 返回状态的字符串表示，用于 DTO。
func (d *Document) StatusLabel() string {
	switch d.Status {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "processing"
	}
}

// DocumentDTO 是返回给前端的文档信息结构。
type DocumentDTO struct {
	ID         string `json:"id"`
	FileName   string `json:"filename"`
	UploadDate string `json:"uploadDate"`
	Size       int64  `json:"size"`
	Status     string `json:"status"`
	Ready      bool   `json:"ready"`
}

// ToDTO 将 ORM 模型转换为 DTO。
func (d *Document) ToDTO() DocumentDTO {
	return DocumentDTO{
		ID:         d.ID,
		FileName:   d.FileName,
		UploadDate: d.CreatedAt.Format(time.RFC3339),
		Size:       d.FileSize,
		Status:     d.StatusLabel(),
		Ready:      d.Ready(),
	}
}
