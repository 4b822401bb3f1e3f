package retrieval

import "time"

// DocumentInput 文档索引输入
type DocumentInput struct {
	DocumentID string
	FileName   string
	Content    string
}

// EmailInput 邮件索引输入
type EmailInput struct {
	MessageID string
	Subject   string
	Sender    string
	SentAt    time.Time
	Body      string
}
