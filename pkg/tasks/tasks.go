// Package tasks 定义了通过 Kafka 传递的任务结构。
package tasks

// DocumentProcessingTask 表示一个文档处理任务：
// 消费者据此从对象存储下载原始文件并执行提取、分块、索引构建。
type DocumentProcessingTask struct {
	DocumentID string `json:"document_id"`
	ObjectName string `json:"object_name"`
	FileName   string `json:"file_name"`
}
