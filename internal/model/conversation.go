package model

import "time"

// ConversationMessage 表示某个文档问答历史中的一条问答记录。
type ConversationMessage struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
}
